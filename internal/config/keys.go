package config

import (
	"fmt"
	"os"
	"strconv"
)

// keySpec ties one dotted config key to its Config field, the
// environment variable that overrides it, and how it is stored.
// daylog keys are strings or ints; isInt marks the ints.
type keySpec struct {
	key     string
	env     string
	isInt   bool
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", env: "DAYLOG_SERVER_PORT", isInt: true,
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", env: "DAYLOG_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "user.id", env: "DAYLOG_USER_ID",
		apply:   func(cfg *Config, v any) { cfg.User.ID = v.(string) },
		extract: func(cfg Config) any { return cfg.User.ID },
	},
	{
		key: "audit.interval", env: "DAYLOG_AUDIT_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Audit.Interval = v.(string) },
		extract: func(cfg Config) any { return cfg.Audit.Interval },
	},
	{
		key: "audit.window", env: "DAYLOG_AUDIT_WINDOW", isInt: true,
		apply:   func(cfg *Config, v any) { cfg.Audit.Window = v.(int) },
		extract: func(cfg Config) any { return cfg.Audit.Window },
	},
	{
		key: "log.level", env: "DAYLOG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "api.token", env: "DAYLOG_API_TOKEN", secret: true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
}

// applyBackend overlays stored values onto cfg. Secrets never live in
// the plain backend and are skipped.
func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		v, ok, err := readBackend(b, s)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if ok {
			s.apply(cfg, v)
		}
	}
	return nil
}

func readBackend(b ConfigBackend, s keySpec) (any, bool, error) {
	if s.isInt {
		v, ok, err := b.GetInt(s.key)
		return v, ok, err
	}
	v, ok, err := b.GetString(s.key)
	return v, ok, err
}

// applyEnvOverrides lets DAYLOG_* variables win over backend values.
// Unparseable ints are reported on stderr and skipped.
func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		if !s.isInt {
			s.apply(cfg, raw)
			continue
		}
		i, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring %s=%q: %v\n", s.env, raw, err)
			continue
		}
		s.apply(cfg, i)
	}
}
