// Package filex writes client downloads below the working directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdir creates dirName when missing and returns its absolute path.
// A relative dirName is taken from the current working directory.
func EnsureSubdir(dirName string) (string, error) {
	dir := dirName
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SaveTo writes data to dirName/<base of name>, replacing an existing file.
// Only the base of name is used, so object keys like "archives/x.json"
// cannot escape the directory.
func SaveTo(dirName, name string, data []byte) (string, error) {
	dir, err := EnsureSubdir(dirName)
	if err != nil {
		return "", err
	}

	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	path := filepath.Join(dir, base)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
