package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/phenrril/artfolio/internal/domain"
)

// catalogRow is one catalog item. Position grows with every append; the
// catalog order is position descending.
type catalogRow struct {
	ID                 string   `gorm:"primaryKey;size:64"`
	Position           int64    `gorm:"uniqueIndex;not null"`
	Title              string   `gorm:"size:255;not null"`
	Year               *int     `gorm:"type:int"`
	Date               string   `gorm:"size:120"`
	Medium             string   `gorm:"size:255"`
	Dimensions         string   `gorm:"size:120"`
	Price              *float64 `gorm:"type:decimal(12,2)"`
	Available          bool     `gorm:"not null"`
	Category           string   `gorm:"size:30;index"`
	Thumbnail          string   `gorm:"size:512"`
	Images             []string `gorm:"type:jsonb;serializer:json"`
	Description        string   `gorm:"type:text"`
	Featured           bool     `gorm:"not null;index"`
	OptimizedThumbnail string   `gorm:"size:512"`
	OptimizedImage     string   `gorm:"size:512"`
	CreatedAt          time.Time
}

func (catalogRow) TableName() string { return "catalog_items" }

type CatalogRepo struct{ db *gorm.DB }

func NewCatalogRepo(db *gorm.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&catalogRow{})
}

func (r *CatalogRepo) Load(ctx context.Context) ([]domain.CatalogItem, error) {
	var rows []catalogRow
	if err := r.db.WithContext(ctx).Order("position desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	items := make([]domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.item())
	}
	return items, nil
}

func (r *CatalogRepo) Append(ctx context.Context, item domain.CatalogItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := maxPosition(tx)
		if err != nil {
			return err
		}
		row := rowFrom(item, pos+1)
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}
	return nil
}

// Seed imports items into an empty table, keeping their order. It reports how
// many rows were written.
func (r *CatalogRepo) Seed(ctx context.Context, items []domain.CatalogItem) (int, error) {
	written := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogRow{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		// The first document entry is the most recent, so it gets the highest position.
		for i := len(items) - 1; i >= 0; i-- {
			row := rowFrom(items[i], int64(len(items)-i))
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

func maxPosition(tx *gorm.DB) (int64, error) {
	var pos int64
	err := tx.Model(&catalogRow{}).Select("COALESCE(MAX(position), 0)").Scan(&pos).Error
	return pos, err
}

func rowFrom(it domain.CatalogItem, pos int64) catalogRow {
	return catalogRow{
		ID:                 it.ID,
		Position:           pos,
		Title:              it.Title,
		Year:               it.Year,
		Date:               it.Date,
		Medium:             it.Medium,
		Dimensions:         it.Dimensions,
		Price:              it.Price,
		Available:          it.Available,
		Category:           string(it.Category),
		Thumbnail:          it.Thumbnail,
		Images:             it.Images,
		Description:        it.Description,
		Featured:           it.Featured,
		OptimizedThumbnail: it.OptimizedThumbnail,
		OptimizedImage:     it.OptimizedImage,
	}
}

func (row catalogRow) item() domain.CatalogItem {
	images := row.Images
	if images == nil {
		images = []string{}
	}
	return domain.CatalogItem{
		ID:                 row.ID,
		Title:              row.Title,
		Year:               row.Year,
		Date:               row.Date,
		Medium:             row.Medium,
		Dimensions:         row.Dimensions,
		Price:              row.Price,
		Available:          row.Available,
		Category:           domain.Category(row.Category),
		Thumbnail:          row.Thumbnail,
		Images:             images,
		Description:        row.Description,
		Featured:           row.Featured,
		OptimizedThumbnail: row.OptimizedThumbnail,
		OptimizedImage:     row.OptimizedImage,
	}
}
