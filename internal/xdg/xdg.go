// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"

	"devmanager/internal/constants"
)

// ConfigDir returns the XDG config directory for devmanager
// Priority: XDG_CONFIG_HOME > ~/.config/devmanager
func ConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, constants.AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", constants.AppName), nil
}

// StateDir returns the XDG state directory for devmanager
// Priority: XDG_STATE_HOME > ~/.local/state/devmanager
func StateDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, constants.AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", constants.AppName), nil
}

// LogsDir returns the directory service logs are expected in when the
// services document does not name one
func LogsDir() string {
	stateDir, err := StateDir()
	if err != nil {
		return filepath.Join(os.TempDir(), constants.AppName, "logs")
	}
	return filepath.Join(stateDir, "logs")
}

// ServicesFile returns the default services document path
func ServicesFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.DefaultServicesFile), nil
}

// ExpandHome replaces a leading "~/" with the user's home directory
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
