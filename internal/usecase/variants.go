package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/phenrril/artfolio/internal/domain"
)

const (
	FullMaxWidth       = 1600
	FullJPEGQuality    = 80
	ThumbMaxWidth      = 600
	ThumbJPEGQuality   = 70
	variantContentType = "image/jpeg"
)

// VariantGenerator produces the re-encoded JPEG copies served by the gallery.
type VariantGenerator struct {
	Sink domain.AssetSink

	FullWidth    int
	FullQuality  int
	ThumbWidth   int
	ThumbQuality int
}

func NewVariantGenerator(sink domain.AssetSink) *VariantGenerator {
	return &VariantGenerator{
		Sink:         sink,
		FullWidth:    FullMaxWidth,
		FullQuality:  FullJPEGQuality,
		ThumbWidth:   ThumbMaxWidth,
		ThumbQuality: ThumbJPEGQuality,
	}
}

// Decode reads src with its EXIF orientation applied.
func (g *VariantGenerator) Decode(src []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrVariantGeneration, err)
	}
	return img, nil
}

// Generate decodes src once and writes the optimized full image, the
// optimized thumbnail and, if missing, the plain thumbs/ copy. Nothing is
// written unless both encodes succeed.
func (g *VariantGenerator) Generate(ctx context.Context, src []byte, ref domain.AssetRef) (domain.Variants, error) {
	img, err := g.Decode(src)
	if err != nil {
		return domain.Variants{}, err
	}
	return g.GenerateFrom(ctx, img, ref)
}

// GenerateFrom is Generate for an already decoded image.
func (g *VariantGenerator) GenerateFrom(ctx context.Context, img image.Image, ref domain.AssetRef) (domain.Variants, error) {
	var full, thumb []byte
	var eg errgroup.Group
	eg.Go(func() (err error) {
		full, err = encodeJPEG(img, g.FullWidth, g.FullQuality)
		return err
	})
	eg.Go(func() (err error) {
		thumb, err = encodeJPEG(img, g.ThumbWidth, g.ThumbQuality)
		return err
	})
	if err := eg.Wait(); err != nil {
		return domain.Variants{}, fmt.Errorf("%w: encode: %w", domain.ErrVariantGeneration, err)
	}

	out := domain.Variants{
		Optimized:      ref.Key(domain.KindOptimized),
		OptimizedThumb: ref.Key(domain.KindOptimizedThumb),
	}
	if err := g.put(ctx, out.Optimized, full); err != nil {
		return domain.Variants{}, err
	}
	if err := g.put(ctx, out.OptimizedThumb, thumb); err != nil {
		return domain.Variants{}, err
	}

	legacy := ref.Key(domain.KindThumb)
	exists, err := g.Sink.Exists(ctx, legacy)
	if err != nil {
		return domain.Variants{}, fmt.Errorf("%w: stat %s: %w", domain.ErrVariantGeneration, legacy, err)
	}
	if !exists {
		if err := g.put(ctx, legacy, thumb); err != nil {
			return domain.Variants{}, err
		}
		out.LegacyThumb = legacy
	}

	log.Debug().Str("optimized", out.Optimized).Str("thumb", out.OptimizedThumb).Msg("variants written")
	return out, nil
}

func (g *VariantGenerator) put(ctx context.Context, key string, data []byte) error {
	if err := g.Sink.Put(ctx, key, data, variantContentType); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrVariantGeneration, key, err)
	}
	return nil
}

// encodeJPEG shrinks img to maxWidth when wider, never enlarging it.
func encodeJPEG(img image.Image, maxWidth, quality int) ([]byte, error) {
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
