package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile persists the bearer token between process runs so the session
// can be silently restored at startup.
type TokenFile struct {
	path string
}

// NewTokenFile creates a token file store. An empty path returns nil,
// which disables persistence.
func NewTokenFile(path string) *TokenFile {
	if path == "" {
		return nil
	}
	return &TokenFile{path: path}
}

// Save writes the token with owner-only permissions.
func (t *TokenFile) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// Load reads the stored token. A missing file is not an error; it returns
// an empty token.
func (t *TokenFile) Load() (string, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Clear removes the stored token. Clearing an absent file is a no-op.
func (t *TokenFile) Clear() error {
	err := os.Remove(t.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}
