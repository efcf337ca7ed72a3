package config

import (
	"strings"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	User    UserConfig
	Audit   AuditConfig
	Log     LogConfig
	API     APIConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

// UserConfig names the user the CLI and MCP tools act for when a call
// does not name one.
type UserConfig struct {
	ID string
}

type AuditConfig struct {
	Interval string // Go duration string, e.g. "1h"
	Window   int    // trailing days each sweep re-derives
}

type LogConfig struct {
	Level string
}

type APIConfig struct {
	Token string
}

func defaults() Config {
	var cfg Config
	cfg.Server.Port = 4000
	cfg.Storage.DataDir = defaultDataDir()
	cfg.Audit.Interval = "1h"
	cfg.Audit.Window = 7
	cfg.Log.Level = "info"
	return cfg
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.daylog.app) and the
// API token lives in the macOS Keychain. On Linux the backend is a JSON
// file at $XDG_CONFIG_HOME/daylog/config.json and the token in a secrets
// file under $XDG_DATA_HOME/daylog.
//
// Environment variables (DAYLOG_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret-store access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	// The token never lives in the plain config backend; fall back to
	// the secret store when neither backend nor env supplied one.
	if cfg.API.Token == "" {
		if tok, err := kc.Get(secretService, secretTokenAccount); err == nil && tok != "" {
			cfg.API.Token = tok
		}
	}
	return cfg, nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
