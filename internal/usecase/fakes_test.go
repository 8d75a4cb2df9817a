package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phenrril/artfolio/internal/domain"
)

type memSink struct {
	mu      sync.Mutex
	objects map[string][]byte
	writes  []string
	failOn  string
}

func newMemSink() *memSink { return &memSink{objects: map[string][]byte{}} }

func (s *memSink) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && key == s.failOn {
		return errors.New("disk full")
	}
	s.objects[key] = append([]byte(nil), data...)
	s.writes = append(s.writes, key)
	return nil
}

func (s *memSink) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memSink) URL(key string) string { return "/" + key }

func (s *memSink) get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects[key]
}

type memStore struct {
	mu      sync.Mutex
	items   []domain.CatalogItem
	loadErr error
	loads   int
	appends int
}

func (s *memStore) Load(context.Context) ([]domain.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]domain.CatalogItem(nil), s.items...), nil
}

func (s *memStore) Append(_ context.Context, it domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]domain.CatalogItem{it}, s.items...)
	s.appends++
	return nil
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y += 7 {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func imageSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}
