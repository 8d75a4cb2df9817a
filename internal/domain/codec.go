package domain

import (
	"bytes"
	"encoding/json"
)

// EncodeCatalog renders the catalog document: a pretty-printed JSON array
// with two-space indentation and a trailing newline.
func EncodeCatalog(items []CatalogItem) ([]byte, error) {
	if items == nil {
		items = []CatalogItem{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCatalog parses a catalog document. Empty input and a JSON null both
// decode to an empty catalog.
func DecodeCatalog(raw []byte) ([]CatalogItem, error) {
	items := []CatalogItem{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []CatalogItem{}
	}
	return items, nil
}
