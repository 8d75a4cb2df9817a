package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phenrril/artfolio/internal/domain"
)

// CatalogRepo keeps the catalog in a single local JSON document. Every append
// rewrites the whole file; there is no locking across processes.
type CatalogRepo struct{ path string }

func NewCatalogRepo(path string) *CatalogRepo { return &CatalogRepo{path: path} }

func (r *CatalogRepo) Path() string { return r.path }

func (r *CatalogRepo) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return items, nil
}

func (r *CatalogRepo) Append(ctx context.Context, item domain.CatalogItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	items, err := r.read()
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}
	items = append([]domain.CatalogItem{item}, items...)
	data, err := domain.EncodeCatalog(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domain.ErrStoreWrite, err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
		}
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}
	return nil
}

// read treats a missing document as an empty catalog. A document that exists
// but does not parse is an error so it is never overwritten with an empty list.
func (r *CatalogRepo) read() ([]domain.CatalogItem, error) {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.CatalogItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	items, err := domain.DecodeCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	return items, nil
}
