package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UploadsRoute: prefix URL untuk file lokal (di-serve oleh fiber Static).
const UploadsRoute = "/uploads"

type LocalBackend struct {
	Root    string
	BaseURL string
}

func NewLocalBackend(root, baseURL string) (*LocalBackend, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("local storage: root kosong")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: mkdir %s: %w", root, err)
	}
	return &LocalBackend{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (l *LocalBackend) Name() string { return "local" }

func (l *LocalBackend) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := l.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("local storage: mkdir: %w", err)
	}

	// tulis ke file sementara lalu rename, supaya GET tidak pernah melihat file setengah jadi
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("local storage: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("local storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("local storage: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("local storage: rename: %w", err)
	}
	return l.URLFor(key), nil
}

func (l *LocalBackend) URLFor(key string) string {
	return l.BaseURL + UploadsRoute + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL mengenali URL absolut (BaseURL/uploads/...) maupun path relatif (/uploads/...).
func (l *LocalBackend) KeyFromURL(url string) (string, bool) {
	prefixes := []string{l.BaseURL + UploadsRoute + "/", UploadsRoute + "/"}
	for _, p := range prefixes {
		if strings.HasPrefix(url, p) {
			key := strings.TrimPrefix(url, p)
			if i := strings.IndexAny(key, "?#"); i >= 0 {
				key = key[:i]
			}
			return key, key != ""
		}
	}
	return "", false
}

func (l *LocalBackend) Read(key string) ([]byte, error) {
	full, err := l.pathFor(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (l *LocalBackend) pathFor(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) || strings.Contains(key, "..") {
		return "", fmt.Errorf("local storage: key tidak valid %q", key)
	}
	return filepath.Join(l.Root, clean), nil
}
