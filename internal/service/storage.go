package service

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

// Storage is a disk media files are written to.
type Storage interface {
	Disk() string
	Put(ctx context.Context, path string, body io.Reader, contentType string) (int64, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

type LocalStorage struct {
	root      string
	publicURL string
}

func NewLocalStorage(root, publicURL string) *LocalStorage {
	return &LocalStorage{root: root, publicURL: strings.TrimRight(publicURL, "/")}
}

func (l *LocalStorage) Disk() string {
	return "local"
}

func (l *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage path %q", path)
	}
	return filepath.Join(l.root, clean), nil
}

func (l *LocalStorage) Put(_ context.Context, path string, body io.Reader, _ string) (int64, error) {
	full, err := l.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(full)
		return 0, fmt.Errorf("writing file: %w", err)
	}
	return n, nil
}

// Delete ignores files that are already gone.
func (l *LocalStorage) Delete(_ context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

func (l *LocalStorage) URL(path string) string {
	return l.publicURL + "/" + strings.TrimLeft(path, "/")
}
