package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/art/assets/artworks/a.jpg", objectURL("", "art", "assets/artworks/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/assets/artworks/a.jpg", objectURL("https://cdn.example.com/", "art", "assets/artworks/a.jpg"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), "", "", "")
	assert.Error(t, err)
}
