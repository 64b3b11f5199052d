package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as plain files under a root directory. It
// cannot sign URLs, so transfers through it are always proxied.
type LocalStorage struct {
	root string
}

var _ Storage = (*LocalStorage)(nil)

// NewLocalStorage returns storage rooted at root.
func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// abs turns a slash-separated object name into an absolute path under root.
func (l *LocalStorage) abs(name string) string {
	name = strings.ReplaceAll(name, "/", string(os.PathSeparator))
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.root, name)
}

// Open implements Storage.
func (l *LocalStorage) Open(_ context.Context, name string) (Object, error) {
	f, err := os.Open(l.abs(name))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Stat implements Storage.
func (l *LocalStorage) Stat(_ context.Context, name string) (fs.FileInfo, error) {
	info, err := os.Stat(l.abs(name))
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return info, nil
}

// Put implements Storage.
func (l *LocalStorage) Put(_ context.Context, name string, r io.Reader) (int64, error) {
	p := l.abs(name)
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return 0, fmt.Errorf("create parent of %s: %w", name, err)
	}
	f, err := os.Create(p)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", name, err)
	}
	return n, nil
}

// Exists implements Storage.
func (l *LocalStorage) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(l.abs(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
}

// Rename implements Storage.
func (l *LocalStorage) Rename(_ context.Context, oldName, newName string) error {
	dst := l.abs(newName)
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("create parent of %s: %w", newName, err)
	}
	if err := os.Rename(l.abs(oldName), dst); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// Delete implements Storage.
func (l *LocalStorage) Delete(_ context.Context, name string) error {
	if err := os.Remove(l.abs(name)); err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
