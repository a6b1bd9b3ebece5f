package fsutil

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/glorpus-work/fetchd/pkg/platform"
)

const (
	// AppName is the name of the application used in paths
	AppName = "fetchd"

	userDirsFile   = "user-dirs.dirs"
	xdgDownloadKey = "XDG_DOWNLOAD_DIR"
)

// GetConfigDir returns the platform-specific configuration directory for the application
// On Linux: ~/.config/fetchd/
// On macOS: ~/Library/Application Support/fetchd/
// On Windows: %APPDATA%\fetchd\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetDownloadsDir returns the user's downloads directory.
// On Linux and the BSDs it honours $XDG_DOWNLOAD_DIR and the XDG_DOWNLOAD_DIR entry
// of user-dirs.dirs before falling back to ~/Downloads.
// On macOS: ~/Downloads
// On Windows: %USERPROFILE%\Downloads
func GetDownloadsDir() (string, error) {
	if dir := os.Getenv(xdgDownloadKey); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case platform.OSWindows, platform.OSDarwin:
	default:
		if dir, ok := xdgUserDownloadDir(home); ok {
			return dir, nil
		}
	}
	return filepath.Join(home, "Downloads"), nil
}

// xdgUserDownloadDir reads XDG_DOWNLOAD_DIR from $XDG_CONFIG_HOME/user-dirs.dirs.
func xdgUserDownloadDir(home string) (string, bool) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		configHome = filepath.Join(home, ".config")
	}
	f, err := os.Open(filepath.Join(configHome, userDirsFile))
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	dir, err := parseUserDirs(bufio.NewScanner(f), home)
	if err != nil || dir == "" {
		return "", false
	}
	return dir, true
}

var errNoDownloadEntry = errors.New("no XDG_DOWNLOAD_DIR entry")

// parseUserDirs extracts the download directory from user-dirs.dirs content,
// e.g. XDG_DOWNLOAD_DIR="$HOME/Downloads".
func parseUserDirs(sc *bufio.Scanner, home string) (string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != xdgDownloadKey {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"`)
		value = strings.Replace(value, "$HOME", home, 1)
		if !filepath.IsAbs(value) {
			// relative entries are ignored by xdg-user-dirs as well
			continue
		}
		return filepath.Clean(value), nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", errNoDownloadEntry
}
