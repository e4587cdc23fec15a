package credentials

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName    = "activity-dashboard"
	credsFileName = "credentials.json"
)

// configHome honours XDG_CONFIG_HOME, falling back to
// ~/.config. It returns "" when no home directory is known.
func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// DefaultCredsPath is where the file store keeps tokens unless configured
// otherwise.
func DefaultCredsPath() string {
	home := configHome()
	if home == "" {
		return credsFileName
	}
	return filepath.Join(home, appDirName, credsFileName)
}

// EnsureParentDir creates the owner-only directory holding path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
