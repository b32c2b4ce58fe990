package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appDirName = "drawingdb"

// GetDataDir resolves the base directory for the drawing store. DRAWING_DIR
// wins, then the XDG data home, and finally the user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv("DRAWING_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appDirName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appDirName)
}

// GetDBPath returns the absolute path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "drawings.db")
}

// GetConfigPath returns the settings file location.
func GetConfigPath() string {
	return filepath.Join(GetDataDir(), "config.yaml")
}
