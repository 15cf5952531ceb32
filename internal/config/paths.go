package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mitchellh/go-homedir"
)

// AppDirName is the per-user data directory name.
const AppDirName = "ReRe"

// AppDir returns the per-user data directory: %APPDATA%\ReRe on Windows,
// ~/.rere elsewhere. It does not create it.
func AppDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, ".rere"), nil
}

// ResolveDir expands a leading ~ in dir, or falls back to AppDir/sub when dir
// is empty.
func ResolveDir(dir, sub string) (string, error) {
	if dir == "" {
		base, err := AppDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, sub), nil
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return "", fmt.Errorf("could not expand %q: %w", dir, err)
	}
	return expanded, nil
}

// MacrosDir resolves the configured macro directory.
func (c *Config) MacrosDir() (string, error) {
	return ResolveDir(c.Storage().MacrosDir, "macros")
}

// ProfilesDir resolves the configured profile directory.
func (c *Config) ProfilesDir() (string, error) {
	return ResolveDir(c.Storage().ProfilesDir, "profiles")
}
