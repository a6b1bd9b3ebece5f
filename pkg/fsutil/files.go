package fsutil

import (
	"os"
)

// CreateFilePerm creates (or truncates) name for writing with the given permissions.
func CreateFilePerm(name string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}
