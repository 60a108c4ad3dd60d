package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenFile persists the credential between CLI invocations so commands
// compose. The file holds the raw token, mode 0600.
type TokenFile struct {
	Path string
}

// DefaultTokenPath returns the per-user token location, honoring
// XDG_STATE_HOME.
func DefaultTokenPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "workboard", "token")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".workboard", "token")
	}
	return filepath.Join(home, ".local", "state", "workboard", "token")
}

// Read returns the stored token, or "" when none is stored.
func (f *TokenFile) Read() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Write stores the token, creating parent directories as needed.
func (f *TokenFile) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Remove deletes the stored token. Missing files are not an error.
func (f *TokenFile) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
