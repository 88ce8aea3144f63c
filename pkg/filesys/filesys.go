// Package filesys provides the small set of directory helpers the storage
// layer needs: creating the database directory on Open and listing its
// contents during the log-file discovery scan.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// CreateDir creates a directory at the specified path with the given permissions.
//
// If the directory already exists:
//   - If 'force' is true, it proceeds without error.
//   - If 'force' is false, it returns an error.
//
// It also returns an error if the existing path is a file (not a directory).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force {
		if err == nil {
			return os.ErrExist
		}
		if !os.IsNotExist(err) {
			return err
		}
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}

// ReadDir reads the directory specified by `dirName` and returns a list of
// matching file paths. It uses `filepath.Glob`, so `dirName` can contain
// glob patterns (e.g. "mydir/*.log").
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}
