package config

// ConfigBackend is the platform-specific store for non-secret config
// keys: UserDefaults (via the `defaults` CLI) on macOS, a JSON file in
// the XDG config directory elsewhere.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
