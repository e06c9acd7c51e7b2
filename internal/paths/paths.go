// Package paths resolves configuration, data, log and download directory
// locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName is the directory name used under the platform base directories.
const appName = "keepitup"

// Subdirectory names below the data directory.
const (
	LogDirName      = "log"
	DownloadDirName = "download"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "KEEPITUP_CONFIG_DIR"
	EnvDataDir   = "KEEPITUP_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/keepitup (fallback ~/.config/keepitup)
// macOS:   ~/Library/Application Support/keepitup
// Windows: %APPDATA%/keepitup
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/keepitup (fallback ~/.local/share/keepitup)
// macOS:   ~/Library/Application Support/keepitup
// Windows: %APPDATA%/keepitup
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, appName), nil
	}
	// os.UserConfigDir returns ~/Library/Application Support on macOS and
	// %APPDATA% on Windows.
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > KEEPITUP_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > KEEPITUP_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// LogDir returns the file log directory. A configured value wins over the
// log subdirectory of dataDir.
func LogDir(dataDir, configured string) (string, error) {
	return subDir(dataDir, configured, LogDirName)
}

// DownloadDir returns the directory download probes write into. A configured
// value wins over the download subdirectory of dataDir.
func DownloadDir(dataDir, configured string) (string, error) {
	return subDir(dataDir, configured, DownloadDirName)
}

func subDir(dataDir, configured, name string) (string, error) {
	if configured != "" {
		return filepath.Abs(configured)
	}
	return filepath.Join(dataDir, name), nil
}
