package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// Storage writes assets below a site root so they are served next to the
// pages that reference them.
type Storage struct{ root string }

func New(root string) *Storage { return &Storage{root: root} }

func (s *Storage) Root() string { return s.root }

func (s *Storage) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *Storage) URL(key string) string { return "/" + key }

// resolve maps a slash-separated key onto the root, refusing keys that would
// escape it.
func (s *Storage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
