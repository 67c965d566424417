// Package paths decides where jellyrename keeps its config, history and
// logs. Every location can be overridden; "~" in an override means the
// real user's home, also under sudo.
package paths

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

const appName = "jellyrename"

// Default locations relative to AppDir.
const (
	configFile  = "config.toml"
	historyFile = "history.db"
	logFile     = "logs/" + appName + ".log"
)

// UserHomeDir returns the home of the user who invoked the program. Under
// sudo that is SUDO_USER's home, so a sudo run (needed for chown) shares
// config and undo history with normal runs.
func UserHomeDir() (string, error) {
	if name := os.Getenv("SUDO_USER"); name != "" && name != "root" {
		if u, err := user.Lookup(name); err == nil {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// AppDir is ~/.config/jellyrename.
func AppDir() (string, error) {
	home, err := UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ExpandHome replaces a leading "~" with the user's home.
func ExpandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home dir: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// ConfigPath returns override, or the default config file.
func ConfigPath(override string) (string, error) {
	return resolve(override, configFile)
}

// HistoryPath returns override, or the default undo history database.
func HistoryPath(override string) (string, error) {
	return resolve(override, historyFile)
}

// LogPath returns override, or the default log file.
func LogPath(override string) (string, error) {
	return resolve(override, logFile)
}

func resolve(override, name string) (string, error) {
	if override != "" {
		return ExpandHome(override)
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}
