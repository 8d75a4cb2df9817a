package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/artfolio/internal/domain"
)

// acceptedImageTypes are the formats the variant decoder understands.
var acceptedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

const unsupportedImageMessage = "image must be a JPEG, PNG, GIF or WebP file"

// Submission is one admin upload as received from the form. Numeric and
// boolean fields stay raw until Ingest coerces them.
type Submission struct {
	Title       string `validate:"required"`
	Category    string `validate:"required"`
	Image       []byte `validate:"required,min=1"`
	Filename    string
	Year        string
	Date        string
	Medium      string
	Dimensions  string
	Price       string
	Description string
	Featured    string
	Available   string
}

type IngestUC struct {
	Store      domain.CatalogStore
	Sink       domain.AssetSink
	Variants   *VariantGenerator
	AdminToken string
	Now        func() time.Time

	mu       sync.Mutex
	validate *validator.Validate
}

func NewIngestUC(store domain.CatalogStore, sink domain.AssetSink, adminToken string) *IngestUC {
	return &IngestUC{
		Store:      store,
		Sink:       sink,
		Variants:   NewVariantGenerator(sink),
		AdminToken: adminToken,
		Now:        time.Now,
		validate:   validator.New(),
	}
}

// Authorize reports ErrUnauthorized unless token equals the configured
// admin token.
func (uc *IngestUC) Authorize(token string) error {
	if token == "" || uc.AdminToken == "" {
		return domain.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(uc.AdminToken)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// Ingest stores the original upload, its variants and a new catalog entry at
// the head of the store. Uploads are processed one at a time.
func (uc *IngestUC) Ingest(ctx context.Context, token string, sub Submission) (*domain.CatalogItem, error) {
	if err := uc.Authorize(token); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	sub.Title = strings.TrimSpace(sub.Title)
	sub.Category = strings.TrimSpace(sub.Category)
	if err := uc.validator().Struct(sub); err != nil {
		return nil, validationFrom(err)
	}
	mt := mimetype.Detect(sub.Image)
	if !mimetype.EqualsAny(mt.String(), acceptedImageTypes...) {
		return nil, domain.NewValidationError("image", unsupportedImageMessage)
	}
	img, err := uc.Variants.Decode(sub.Image)
	if err != nil {
		log.Warn().Err(err).Str("type", mt.String()).Msg("upload does not decode")
		return nil, domain.NewValidationError("image", unsupportedImageMessage)
	}
	year, err := parseYear(sub.Year)
	if err != nil {
		return nil, err
	}
	price, err := parsePrice(sub.Price)
	if err != nil {
		return nil, err
	}

	existing, err := uc.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}

	now := uc.now()
	cat := domain.NormalizeAssetCategory(sub.Category)
	ref, err := uc.freeRef(ctx, domain.NewAssetRef(cat, domain.SanitizeFilename(sub.Filename, now)), now)
	if err != nil {
		return nil, err
	}
	raw := ref.Key(domain.KindOriginal)

	if err := uc.Sink.Put(ctx, raw, sub.Image, mt.String()); err != nil {
		return nil, fmt.Errorf("save original %s: %w", raw, err)
	}
	variants, err := uc.Variants.GenerateFrom(ctx, img, ref)
	if err != nil {
		return nil, err
	}

	item := domain.CatalogItem{
		ID:                 uniqueID(cat.IDPrefix(), now, existing),
		Title:              sub.Title,
		Year:               year,
		Date:               sub.Date,
		Medium:             sub.Medium,
		Dimensions:         sub.Dimensions,
		Price:              price,
		Available:          strings.TrimSpace(sub.Available) != "false",
		Category:           cat.Category(),
		Thumbnail:          raw,
		Images:             []string{raw},
		Description:        sub.Description,
		Featured:           strings.TrimSpace(sub.Featured) == "true",
		OptimizedThumbnail: variants.OptimizedThumb,
		OptimizedImage:     variants.Optimized,
	}
	if err := uc.Store.Append(ctx, item); err != nil {
		return nil, err
	}

	log.Info().Str("id", item.ID).Str("title", item.Title).Str("category", string(item.Category)).Msg("artwork ingested")
	return &item, nil
}

// freeRef returns ref, or ref with -<millis> appended when an earlier upload
// already owns the original or optimized file under that name.
func (uc *IngestUC) freeRef(ctx context.Context, ref domain.AssetRef, now time.Time) (domain.AssetRef, error) {
	candidate := ref
	for ms := now.UnixMilli(); ; ms++ {
		taken, err := uc.assetTaken(ctx, candidate)
		if err != nil {
			return domain.AssetRef{}, err
		}
		if !taken {
			return candidate, nil
		}
		candidate = ref.WithSuffix(strconv.FormatInt(ms, 10))
	}
}

func (uc *IngestUC) assetTaken(ctx context.Context, ref domain.AssetRef) (bool, error) {
	for _, kind := range []domain.VariantKind{domain.KindOriginal, domain.KindOptimized} {
		key := ref.Key(kind)
		ok, err := uc.Sink.Exists(ctx, key)
		if err != nil {
			return false, fmt.Errorf("check %s: %w", key, err)
		}
		if ok {
			log.Debug().Str("key", key).Msg("asset name taken")
			return true, nil
		}
	}
	return false, nil
}

func (uc *IngestUC) validator() *validator.Validate {
	if uc.validate == nil {
		uc.validate = validator.New()
	}
	return uc.validate
}

func (uc *IngestUC) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}

func validationFrom(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "min":
		return domain.NewValidationError(field, field+" is required")
	default:
		return domain.NewValidationError(field, field+" is invalid")
	}
}

func parseYear(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, domain.NewValidationError("year", "year must be a whole number")
	}
	return &n, nil
}

func parsePrice(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.NewValidationError("price", "price must be a non-negative number")
	}
	return &f, nil
}

// uniqueID returns <prefix>-<millis>, moving forward one millisecond at a time
// past ids already present.
func uniqueID(prefix string, now time.Time, existing []domain.CatalogItem) string {
	taken := make(map[string]struct{}, len(existing))
	for _, it := range existing {
		taken[it.ID] = struct{}{}
	}
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d", prefix, ms)
		if _, dup := taken[id]; !dup {
			return id
		}
		ms++
	}
}
