package domain

import (
	"context"
	"strings"
)

type Category string

const (
	CategoryPainting    Category = "painting"
	CategoryPhotography Category = "photography"
)

// AssetCategory is the upload tag and asset directory name. Items carry the
// derived Category instead.
type AssetCategory string

const (
	AssetArtworks    AssetCategory = "artworks"
	AssetPhotography AssetCategory = "photography"
)

func (c AssetCategory) Category() Category {
	if c == AssetPhotography {
		return CategoryPhotography
	}
	return CategoryPainting
}

func (c AssetCategory) IDPrefix() string {
	if c == AssetPhotography {
		return "ph"
	}
	return "mz"
}

func (c AssetCategory) Valid() bool {
	return c == AssetArtworks || c == AssetPhotography
}

// NormalizeAssetCategory maps a free-form upload tag onto an asset directory.
// Unknown tags land in artworks.
func NormalizeAssetCategory(tag string) AssetCategory {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "photography", "photo", "photos", "photograph", "photographs":
		return AssetPhotography
	default:
		return AssetArtworks
	}
}

type CatalogItem struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Year               *int     `json:"year,omitempty"`
	Date               string   `json:"date"`
	Medium             string   `json:"medium"`
	Dimensions         string   `json:"dimensions"`
	Price              *float64 `json:"price,omitempty"`
	Available          bool     `json:"available"`
	Category           Category `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Images             []string `json:"images"`
	Description        string   `json:"description"`
	Featured           bool     `json:"featured"`
	OptimizedThumbnail string   `json:"optimizedThumbnail,omitempty"`
	OptimizedImage     string   `json:"optimizedImage,omitempty"`
}

// YearOrZero treats an absent year as 0 for ordering.
func (it CatalogItem) YearOrZero() int {
	if it.Year == nil {
		return 0
	}
	return *it.Year
}

func (it CatalogItem) PriceOrZero() float64 {
	if it.Price == nil {
		return 0
	}
	return *it.Price
}

// RawImage is the unprocessed reference every fallback chain ends on.
func (it CatalogItem) RawImage() string {
	if len(it.Images) > 0 && it.Images[0] != "" {
		return it.Images[0]
	}
	return it.Thumbnail
}

// RawThumbnail is the grid base path: thumbnail first, then the primary image.
func (it CatalogItem) RawThumbnail() string {
	if it.Thumbnail != "" {
		return it.Thumbnail
	}
	if len(it.Images) > 0 {
		return it.Images[0]
	}
	return ""
}

// CatalogStore persists the ordered item sequence, most recent first.
type CatalogStore interface {
	Load(ctx context.Context) ([]CatalogItem, error)
	Append(ctx context.Context, item CatalogItem) error
}

// AssetSink stores image bytes by key. Keys are the relative paths written
// into catalog items, e.g. assets/artworks/thumbs/a.jpg.
type AssetSink interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key string) string
}
