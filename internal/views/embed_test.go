package views

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmbedded(t *testing.T) {
	tmpl, err := Parse(false)
	require.NoError(t, err)
	for _, name := range []string{"home.html", "gallery.html", "detail.html", "admin.html", "card", "head", "foot"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestFootRetriesImagesThatFailedEarly(t *testing.T) {
	tmpl, err := Parse(false)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "foot", map[string]any{"Year": 2026}))

	out := buf.String()
	assert.Contains(t, out, "img.addEventListener('error'")
	assert.Contains(t, out, "img.complete && img.naturalWidth === 0")
}

func TestAssetURL(t *testing.T) {
	assert.Equal(t, "/assets/artworks/red%20field.jpg", AssetURL("assets/artworks/red field.jpg"))
	assert.Equal(t, "/assets/a.jpg", AssetURL("/assets/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/a.jpg", AssetURL("https://cdn.example.com/a.jpg"))
	assert.Equal(t, "", AssetURL("  "))
}
