//go:build darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Config values live in UserDefaults under this domain on macOS.
const defaultsDomain = "com.daylog.app"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "daylog-data"
	}
	return filepath.Join(home, "Library", "Application Support", "daylog")
}

// defaultsBackend shells out to the `defaults` CLI. Exit code 1 from
// `defaults read` means the key is unset.
type defaultsBackend struct {
	domain string
}

func newPlatformBackend() ConfigBackend {
	return &defaultsBackend{domain: defaultsDomain}
}

func (b *defaultsBackend) read(key string) (string, bool, error) {
	out, err := exec.Command("defaults", "read", b.domain, key).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err == nil {
		return text, true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return "", false, nil
	}
	return "", false, fmt.Errorf("defaults read %s: %w (output: %s)", key, err, text)
}

func (b *defaultsBackend) write(key, typeFlag, value string) error {
	if err := exec.Command("defaults", "write", b.domain, key, typeFlag, value).Run(); err != nil {
		return fmt.Errorf("defaults write %s: %w", key, err)
	}
	return nil
}

func (b *defaultsBackend) GetString(key string) (string, bool, error) {
	return b.read(key)
}

func (b *defaultsBackend) GetInt(key string) (int, bool, error) {
	text, ok, err := b.read(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, true, fmt.Errorf("%s is not an integer: %w", key, err)
	}
	return n, true, nil
}

func (b *defaultsBackend) SetString(key, val string) error {
	return b.write(key, "-string", val)
}

func (b *defaultsBackend) SetInt(key string, val int) error {
	return b.write(key, "-int", strconv.Itoa(val))
}

func (b *defaultsBackend) Delete(key string) error {
	if err := exec.Command("defaults", "delete", b.domain, key).Run(); err != nil {
		return fmt.Errorf("defaults delete %s: %w", key, err)
	}
	return nil
}
