package storage

import (
	"context"
	"os"
	"path/filepath"
)

// LocalProvider writes documents under a directory on disk. The returned URL
// is the server-relative path the document route serves.
type LocalProvider struct {
	dir string
}

func NewLocal(dir string) *LocalProvider {
	return &LocalProvider{dir: dir}
}

func (p *LocalProvider) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := filepath.Join(p.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return "/documents/" + key, nil
}
