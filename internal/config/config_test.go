package config

import (
	"slices"
	"testing"
)

// mockBackend is an in-memory ConfigBackend keeping strings and ints
// in separate maps, mirroring how real backends type their values.
type mockBackend struct {
	stringVals map[string]string
	intVals    map[string]int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		stringVals: map[string]string{},
		intVals:    map[string]int{},
	}
}

func (m *mockBackend) GetString(key string) (string, bool, error) {
	v, ok := m.stringVals[key]
	return v, ok, nil
}

func (m *mockBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.intVals[key]
	return v, ok, nil
}

func (m *mockBackend) SetString(key, val string) error {
	m.stringVals[key] = val
	return nil
}

func (m *mockBackend) SetInt(key string, val int) error {
	m.intVals[key] = val
	return nil
}

func (m *mockBackend) Delete(key string) error {
	delete(m.stringVals, key)
	delete(m.intVals, key)
	return nil
}

// stubKeychain is a test double for the keychain interface.
type stubKeychain struct {
	token string
	err   error
}

func (s stubKeychain) Get(service, account string) (string, error) {
	return s.token, s.err
}

// clearEnv blanks every DAYLOG_* variable so ambient shell state cannot
// leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMockBackend(), stubKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want 4000", cfg.Server.Port)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
	if cfg.Audit.Interval != "1h" {
		t.Errorf("Audit.Interval = %q, want 1h", cfg.Audit.Interval)
	}
	if cfg.Audit.Window != 7 {
		t.Errorf("Audit.Window = %d, want 7", cfg.Audit.Window)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.User.ID != "" {
		t.Errorf("User.ID = %q, want empty", cfg.User.ID)
	}
}

func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMockBackend()
	b.intVals["server.port"] = 5000
	b.intVals["audit.window"] = 3
	b.stringVals["user.id"] = "me"
	b.stringVals["log.level"] = "debug"

	cfg, err := loadWith(b, stubKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.User.ID != "me" {
		t.Errorf("User.ID = %q, want me", cfg.User.ID)
	}
	if cfg.Audit.Window != 3 {
		t.Errorf("Audit.Window = %d, want 3", cfg.Audit.Window)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYLOG_SERVER_PORT", "6000")
	t.Setenv("DAYLOG_USER_ID", "env-user")

	b := newMockBackend()
	b.intVals["server.port"] = 5000
	b.stringVals["user.id"] = "backend-user"

	cfg, err := loadWith(b, stubKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want env override 6000", cfg.Server.Port)
	}
	if cfg.User.ID != "env-user" {
		t.Errorf("User.ID = %q, want env-user", cfg.User.ID)
	}
}

func TestEnvBadInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYLOG_AUDIT_WINDOW", "soon")

	cfg, err := loadWith(newMockBackend(), stubKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Audit.Window != 7 {
		t.Errorf("Audit.Window = %d, want default 7 after bad env value", cfg.Audit.Window)
	}
}

func TestTokenFromKeychain(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMockBackend(), stubKeychain{token: "dlg_secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token != "dlg_secret" {
		t.Errorf("API.Token = %q, want dlg_secret", cfg.API.Token)
	}
}

func TestTokenEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DAYLOG_API_TOKEN", "env-token")

	cfg, err := loadWith(newMockBackend(), stubKeychain{token: "keychain-token"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.Token != "env-token" {
		t.Errorf("API.Token = %q, want env-token", cfg.API.Token)
	}
}

func TestShowAll_OmitsSecrets(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMockBackend(), stubKeychain{token: "dlg_secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var keys []string
	for _, info := range ShowAll(cfg) {
		keys = append(keys, info.Key)
	}
	if slices.Contains(keys, "api.token") {
		t.Error("ShowAll exposes api.token")
	}
	if !slices.Contains(keys, "user.id") {
		t.Error("ShowAll missing user.id")
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	if !slices.Contains(keys, "audit.interval") {
		t.Error("ValidKeys missing audit.interval")
	}
	if slices.Contains(keys, "api.token") {
		t.Error("ValidKeys lists the secret api.token")
	}
}
