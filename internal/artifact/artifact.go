// Package artifact manages the temporary files that hold a buffer while an
// external formatter works on it.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// filePrefix names every artifact so stray files are recognisable.
const filePrefix = "cfmt-"

// Artifact is one temporary file. Path is always Stem + Ext.
type Artifact struct {
	Stem string
	Ext  string
	Path string
}

// Error is an I/O failure on an artifact.
type Error struct {
	Op   string // "create", "write", "read" or "remove"
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s temp file: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s temp file %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store creates, reads and removes artifacts.
type Store interface {
	Create(text []byte, ext string) (Artifact, error)
	Read(a Artifact) ([]byte, error)
	Remove(a Artifact) error
}

// DirStore keeps artifacts in a directory on disk.
type DirStore struct {
	dir string
}

// NewDirStore returns a store rooted at dir. An empty dir means os.TempDir().
func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

// Dir returns the directory artifacts are created in.
func (s *DirStore) Dir() string {
	if s.dir == "" {
		return os.TempDir()
	}
	return s.dir
}

// Create writes text to a new uniquely named file ending in ext.
// Nothing is left on disk if writing fails.
func (s *DirStore) Create(text []byte, ext string) (Artifact, error) {
	if strings.ContainsAny(ext, `/\`) {
		return Artifact{}, &Error{Op: "create", Err: fmt.Errorf("invalid extension %q", ext)}
	}

	f, err := os.CreateTemp(s.Dir(), filePrefix+"*"+ext)
	if err != nil {
		return Artifact{}, &Error{Op: "create", Err: err}
	}
	path := f.Name()

	if _, err := f.Write(text); err != nil {
		f.Close()
		os.Remove(path)
		return Artifact{}, &Error{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Artifact{}, &Error{Op: "write", Path: path, Err: err}
	}

	return Artifact{
		Stem: strings.TrimSuffix(path, ext),
		Ext:  ext,
		Path: path,
	}, nil
}

// Read returns the artifact's current content.
func (s *DirStore) Read(a Artifact) ([]byte, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, &Error{Op: "read", Path: a.Path, Err: err}
	}
	return data, nil
}

// Remove deletes the artifact. A file that is already gone is not an error.
func (s *DirStore) Remove(a Artifact) error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &Error{Op: "remove", Path: a.Path, Err: err}
	}
	return nil
}

// Leftovers lists artifacts in the store's directory that were last
// modified before cutoff. A crashed run can leave these behind.
func (s *DirStore) Leftovers(cutoff time.Time) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir(), filePrefix+"*"))
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, path)
		}
	}
	return stale, nil
}
