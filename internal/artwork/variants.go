package artwork

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Variant names one rendition of a cached cover. The original keeps the
// source image's extension; thumbnails live beside it as
// <hash>__<variant>.avif, so the sha-256 cache key stays recoverable from
// either filename.
type Variant string

const (
	VariantOriginal Variant = "original"
	VariantPlayer   Variant = "player"
	VariantGrid     Variant = "grid"
	VariantDetail   Variant = "detail"
)

const thumbnailExtension = ".avif"

// variantEdges holds the longest-edge pixel budget per thumbnail variant.
var variantEdges = map[Variant]int{
	VariantPlayer: 96,
	VariantGrid:   320,
	VariantDetail: 768,
}

var thumbnailVariants = []Variant{VariantPlayer, VariantGrid, VariantDetail}

// NormalizeVariant maps a raw request value onto a known thumbnail
// variant, defaulting to the original for anything unrecognized.
func NormalizeVariant(value string) Variant {
	variant := Variant(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := variantEdges[variant]; ok {
		return variant
	}

	return VariantOriginal
}

// VariantPath locates the file holding the requested rendition of a cached
// original. It reports false when cachePath does not carry a cache key.
func VariantPath(cachePath string, variant Variant) (string, bool) {
	if variant == VariantOriginal {
		return cachePath, true
	}

	coverHash := CoverHashFromPath(cachePath)
	if coverHash == "" {
		return "", false
	}

	return thumbnailPath(filepath.Dir(cachePath), coverHash, variant), true
}

func thumbnailPath(cacheDir string, coverHash string, variant Variant) string {
	return filepath.Join(cacheDir, coverHash+"__"+string(variant)+thumbnailExtension)
}

// CoverHashFromPath recovers the sha-256 cache key from a cache filename,
// accepting both original and thumbnail names. It returns "" when the
// filename does not start with a full hex digest.
func CoverHashFromPath(cachePath string) string {
	base := filepath.Base(cachePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	key, _, _ := strings.Cut(base, "__")
	key = strings.ToLower(strings.TrimSpace(key))
	if len(key) != sha256.Size*2 {
		return ""
	}
	if _, err := hex.DecodeString(key); err != nil {
		return ""
	}

	return key
}
