// Package fsutil resolves download destinations and creates the directories fetchd writes to.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/fetchd/pkg/errors"
)

// DirLookup returns a well-known base directory, such as the user's downloads directory.
type DirLookup func() (string, error)

// EnsureDir creates a directory and all necessary parent directories with DirModeDefault
// permissions if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, DirModeDefault)
}

// EnsureFileDir creates the parent directory of a file path if it doesn't exist.
func EnsureFileDir(filePath string) error {
	return EnsureDir(filepath.Dir(filePath))
}

// ResolveDestination turns path into an absolute file path.
//
// Absolute paths are returned cleaned, and nothing is created for them. Relative paths are
// joined onto the directory returned by lookup, and the missing parents of the result are
// created. A failing lookup is reported as errors.KindEnvironment and a failing mkdir as
// errors.KindIO.
func ResolveDestination(path string, lookup DirLookup) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	if lookup == nil {
		lookup = GetDownloadsDir
	}
	base, err := lookup()
	if err != nil {
		return "", errors.NewDownloadError(errors.KindEnvironment, "downloads dir", err)
	}
	if base == "" {
		return "", errors.NewDownloadError(errors.KindEnvironment, "downloads dir", os.ErrNotExist)
	}
	if !filepath.IsAbs(base) {
		if base, err = filepath.Abs(base); err != nil {
			return "", errors.NewDownloadError(errors.KindEnvironment, "downloads dir", err)
		}
	}

	resolved := filepath.Join(base, path)
	if err := EnsureFileDir(resolved); err != nil {
		return "", errors.NewDownloadError(errors.KindIO, "mkdir", err)
	}
	return resolved, nil
}
