// Package where resolves the platform-specific directories and files the application reads and writes.
package where

import (
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vidrelay/vidrelay/constant"
	"github.com/vidrelay/vidrelay/filesystem"
)

// EnvConfigPath overrides the configuration directory when set.
const EnvConfigPath = "VIDRELAY_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory.
// EnvConfigPath takes priority over the user config directory.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the cache directory, falling back to ./cache when the platform has none.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the directory holding daily log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Preferences is the json file used by the file preference backend.
func Preferences() string {
	return filepath.Join(Config(), "preferences.json")
}

// PreferencesDB is the bbolt database used by the bolt preference backend.
func PreferencesDB() string {
	return filepath.Join(Config(), "preferences.db")
}

// Scope is the file holding the device scope when no keyring is available.
func Scope() string {
	return filepath.Join(Config(), "scope")
}

// Temp resolves a scratch directory for transient artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.App))
}
