package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/artfolio/internal/domain"
)

func TestGenerateResizesWideImages(t *testing.T) {
	sink := newMemSink()
	gen := NewVariantGenerator(sink)
	ref := domain.NewAssetRef(domain.AssetArtworks, "wide.jpg")

	v, err := gen.Generate(context.Background(), jpegBytes(t, 2000, 1000), ref)
	require.NoError(t, err)

	assert.Equal(t, "assets/optimized/artworks/wide.jpg", v.Optimized)
	assert.Equal(t, "assets/optimized/artworks/thumbs/wide.jpg", v.OptimizedThumb)
	assert.Equal(t, "assets/artworks/thumbs/wide.jpg", v.LegacyThumb)

	w, h := imageSize(t, sink.get(v.Optimized))
	assert.Equal(t, 1600, w)
	assert.Equal(t, 800, h)
	w, h = imageSize(t, sink.get(v.OptimizedThumb))
	assert.Equal(t, 600, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, sink.get(v.OptimizedThumb), sink.get(v.LegacyThumb))
}

func TestGenerateNeverUpscales(t *testing.T) {
	sink := newMemSink()
	v, err := NewVariantGenerator(sink).Generate(context.Background(), jpegBytes(t, 400, 300), domain.NewAssetRef(domain.AssetPhotography, "small.jpg"))
	require.NoError(t, err)

	w, h := imageSize(t, sink.get(v.Optimized))
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	w, _ = imageSize(t, sink.get(v.OptimizedThumb))
	assert.Equal(t, 400, w)
}

func TestGenerateRenamesNonJPEGSources(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 10))))
	sink := newMemSink()

	v, err := NewVariantGenerator(sink).Generate(context.Background(), buf.Bytes(), domain.NewAssetRef(domain.AssetArtworks, "sketch.png"))
	require.NoError(t, err)

	assert.Equal(t, "assets/optimized/artworks/sketch.jpg", v.Optimized)
	imageSize(t, sink.get(v.Optimized))
}

func TestGenerateKeepsExistingLegacyThumb(t *testing.T) {
	sink := newMemSink()
	sink.objects["assets/artworks/thumbs/a.jpg"] = []byte("hand made")

	v, err := NewVariantGenerator(sink).Generate(context.Background(), jpegBytes(t, 50, 50), domain.NewAssetRef(domain.AssetArtworks, "a.jpg"))
	require.NoError(t, err)

	assert.Empty(t, v.LegacyThumb)
	assert.Equal(t, "hand made", string(sink.get("assets/artworks/thumbs/a.jpg")))
}

func TestGenerateFailsWithoutWriting(t *testing.T) {
	sink := newMemSink()
	garbage := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)

	_, err := NewVariantGenerator(sink).Generate(context.Background(), garbage, domain.NewAssetRef(domain.AssetArtworks, "bad.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrVariantGeneration)
	assert.Empty(t, sink.writes)
}

func TestGenerateWrapsWriteFailures(t *testing.T) {
	sink := newMemSink()
	sink.failOn = "assets/optimized/artworks/thumbs/a.jpg"

	_, err := NewVariantGenerator(sink).Generate(context.Background(), jpegBytes(t, 20, 20), domain.NewAssetRef(domain.AssetArtworks, "a.jpg"))
	assert.ErrorIs(t, err, domain.ErrVariantGeneration)
}

func TestGenerateAppliesEXIFOrientation(t *testing.T) {
	sink := newMemSink()
	src := withOrientation(t, jpegBytes(t, 40, 20), 6)

	v, err := NewVariantGenerator(sink).Generate(context.Background(), src, domain.NewAssetRef(domain.AssetPhotography, "portrait.jpg"))
	require.NoError(t, err)

	w, h := imageSize(t, sink.get(v.Optimized))
	assert.Equal(t, 20, w)
	assert.Equal(t, 40, h)
	w, h = imageSize(t, sink.get(v.OptimizedThumb))
	assert.Equal(t, 20, w)
	assert.Equal(t, 40, h)
}

// withOrientation inserts a little-endian EXIF APP1 segment carrying a single
// orientation tag right after the JPEG SOI marker.
func withOrientation(t *testing.T, src []byte, orientation uint16) []byte {
	t.Helper()
	require.True(t, len(src) > 2 && src[0] == 0xff && src[1] == 0xd8)

	var tiff bytes.Buffer
	tiff.WriteString("II*\x00")
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	var out bytes.Buffer
	out.Write(src[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(src[2:])
	return out.Bytes()
}
