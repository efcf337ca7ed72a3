package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	secretService      = "daylog"
	secretTokenAccount = "api_token"
)

// EnsureAPIToken returns the bearer token shared by the server and the
// CLI, generating and persisting one on first use. Lookup order is the
// DAYLOG_API_TOKEN environment variable, then the platform secret store.
func EnsureAPIToken() (string, error) {
	if tok := os.Getenv("DAYLOG_API_TOKEN"); tok != "" {
		return tok, nil
	}
	if data, err := keychainGet(secretService, secretTokenAccount); err == nil {
		if tok := strings.TrimSpace(string(data)); tok != "" {
			return tok, nil
		}
	}

	tok := "dlg_" + uuid.NewString()
	if err := keychainSet(secretService, secretTokenAccount, tok); err != nil {
		return "", fmt.Errorf("storing api token: %w", err)
	}
	return tok, nil
}
