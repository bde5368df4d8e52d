// Package storage provides atomic file writes and the cfmt state directory.
package storage

import (
	"os"
	"path/filepath"
)

// StateDirEnv overrides the state directory, mainly for tests.
const StateDirEnv = "CFMT_STATE_DIR"

// StateDir returns the directory for cfmt's runtime state (lock files),
// creating it if needed. Defaults to ~/.cfmt.
func StateDir() (string, error) {
	dir := os.Getenv(StateDirEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".cfmt")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// WriteFileAtomic replaces the file at path with data.
// It writes to a temp file in the same directory, then renames it over
// the target, so readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tempPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Chmod(perm); err != nil {
		f.Close()
		os.Remove(tempPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return err
	}
	return nil
}
