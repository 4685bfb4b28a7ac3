// Package utils holds host path helpers shared by the binaries.
package utils

import (
	"fmt"
	"path/filepath"

	"teaos/pkg/vfs"
)

// GetPathInfo resolves a host path to its absolute form and the directory
// containing it.
func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}

// DiskName maps a host file to the name it gets on the virtual disk.
func DiskName(hostPath string) (string, error) {
	name := filepath.Base(hostPath)
	if !vfs.ValidName(name) {
		return "", fmt.Errorf("%w: '%s' cannot be stored on the disk", vfs.ErrInvalidFilename, name)
	}
	return name, nil
}
