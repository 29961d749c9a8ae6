package backup

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const dirPerm = 0o755

// Directory owns the backup root.
type Directory struct {
	path string
}

// NewDirectory resolves path to an absolute path and ensures it exists.
func NewDirectory(path string) (*Directory, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, newError("resolve", path, ErrDirectoryCreateFailed, err)
	}
	d := &Directory{path: abs}
	if err := d.Ensure(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) Path() string {
	return d.path
}

// Join returns the absolute path of name inside the root.
func (d *Directory) Join(name string) string {
	return filepath.Join(d.path, name)
}

// Ensure creates the root if it is missing. It is idempotent.
func (d *Directory) Ensure() error {
	return ensureDir(d.path)
}

// Files returns the regular files directly inside the root. A missing root
// yields no entries.
func (d *Directory) Files() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	files := entries[:0]
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, entry)
		}
	}
	return files, nil
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return newError("mkdir", path, ErrDirectoryCreateFailed, err)
	}
	return nil
}
