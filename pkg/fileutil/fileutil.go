// Package fileutil implements file utilities.
package fileutil

import (
	"os"
	"path/filepath"
)

// WriteTempFile writes data to a temporary file and returns its path.
// The caller owns removal.
func WriteTempFile(pfx string, d []byte) (path string, err error) {
	var f *os.File
	f, err = os.CreateTemp(os.TempDir(), pfx+"-*")
	if err != nil {
		return "", err
	}
	path = f.Name()
	_, err = f.Write(d)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// WriteFile writes data to dir/name, creating dir if needed.
func WriteFile(dir string, name string, d []byte) (path string, err error) {
	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path = filepath.Join(dir, name)
	if err = os.WriteFile(path, d, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Exist returns true if a file or directory exists.
func Exist(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(name)
	return err == nil
}
