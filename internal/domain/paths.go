package domain

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

const assetsRoot = "assets"

type VariantKind int

const (
	KindOriginal VariantKind = iota
	// KindThumb is the non-optimized thumbs directory kept for older pages.
	KindThumb
	KindOptimized
	KindOptimizedThumb
)

func (k VariantKind) String() string {
	switch k {
	case KindOriginal:
		return "original"
	case KindThumb:
		return "thumb"
	case KindOptimized:
		return "optimized"
	case KindOptimizedThumb:
		return "optimized-thumb"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AssetRef identifies one uploaded image. Every derived location is built from
// it rather than rewritten out of another path.
type AssetRef struct {
	// Base is whatever preceded "assets/" in a parsed path (a URL origin or
	// a leading slash); empty for refs created at upload time.
	Base     string
	Category AssetCategory
	Filename string
}

func NewAssetRef(cat AssetCategory, filename string) AssetRef {
	return AssetRef{Category: cat, Filename: filename}
}

// Key is the storage key for kind, relative to the site root.
func (r AssetRef) Key(kind VariantKind) string {
	cat := string(r.Category)
	switch kind {
	case KindThumb:
		return path.Join(assetsRoot, cat, "thumbs", VariantName(r.Filename))
	case KindOptimized:
		return path.Join(assetsRoot, "optimized", cat, VariantName(r.Filename))
	case KindOptimizedThumb:
		return path.Join(assetsRoot, "optimized", cat, "thumbs", VariantName(r.Filename))
	default:
		return path.Join(assetsRoot, cat, r.Filename)
	}
}

// WithSuffix returns the ref with "-<suffix>" inserted before the extension.
func (r AssetRef) WithSuffix(suffix string) AssetRef {
	ext := path.Ext(r.Filename)
	r.Filename = strings.TrimSuffix(r.Filename, ext) + "-" + suffix + ext
	return r
}

// Path is Key prefixed with the ref's Base.
func (r AssetRef) Path(kind VariantKind) string {
	return r.Base + r.Key(kind)
}

// ParseAssetPath recognizes [<base>]assets/<category>/<file>. Anything else,
// including paths already inside optimized/ or thumbs/, is rejected.
func ParseAssetPath(p string) (AssetRef, bool) {
	var idx int
	switch {
	case strings.HasPrefix(p, assetsRoot+"/"):
		idx = 0
	default:
		i := strings.LastIndex(p, "/"+assetsRoot+"/")
		if i < 0 {
			return AssetRef{}, false
		}
		idx = i + 1
	}
	rest := p[idx+len(assetsRoot)+1:]
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] == "" {
		return AssetRef{}, false
	}
	cat := AssetCategory(parts[0])
	if !cat.Valid() {
		return AssetRef{}, false
	}
	return AssetRef{Base: p[:idx], Category: cat, Filename: parts[1]}, true
}

// VariantName is the file name used for re-encoded JPEG variants.
func VariantName(filename string) string {
	ext := path.Ext(filename)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return filename
	}
	return strings.TrimSuffix(filename, ext) + ".jpg"
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-. ]+`)

// SanitizeFilename drops any directory part, replaces characters outside
// [A-Za-z0-9_-. ] with "_" and falls back to <millis>.jpg when nothing usable
// is left.
func SanitizeFilename(name string, now time.Time) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ". ")
	if name == "" || name == "_" {
		return fmt.Sprintf("%d.jpg", now.UnixMilli())
	}
	return name
}

// Variants lists the keys written for one upload.
type Variants struct {
	Optimized      string
	OptimizedThumb string
	// LegacyThumb is empty when an existing thumbs/ file was left alone.
	LegacyThumb string
}
