package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Persist implements the devjson.Persist interface for documents kept as
// files under a base directory.
type Persist struct {
	basepath string
	mode     fs.FileMode
}

// Exists reports whether the named file is present.
func (p Persist) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(p.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load returns the content of the named file.
func (p Persist) Load(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(p.path(name))
}

// Store replaces the content of the named file. The bytes are written to a
// temporary file in the same directory and renamed over the target, so
// readers see either the old document or the new one.
func (p Persist) Store(ctx context.Context, name string, b []byte) error {
	path := p.path(name)
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), p.mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	return os.Rename(tmp.Name(), path)
}

// Create makes an empty document file if none exists yet.
func (p Persist) Create(ctx context.Context, name string) error {
	f, err := os.OpenFile(p.path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, p.mode)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return f.Close()
}

func (p Persist) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.basepath, name)
}

// NewPersistForPath returns a Persist that resolves document names
// relative to the directory at the given path. Absolute names are used
// as is.
//
//	p := NewPersistForPath("/etc/myapp")
//	b, err := p.Load(ctx, "settings.json")
func NewPersistForPath(path string) Persist {
	return Persist{path, 0o644}
}
