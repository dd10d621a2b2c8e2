package artwork

import (
	"path/filepath"
	"strings"
	"testing"
)

const testHash = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestNormalizeVariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Variant
	}{
		{"", VariantOriginal},
		{"original", VariantOriginal},
		{"PLAYER", VariantPlayer},
		{" grid ", VariantGrid},
		{"detail", VariantDetail},
		{"bogus", VariantOriginal},
	}

	for _, tc := range cases {
		if got := NormalizeVariant(tc.in); got != tc.want {
			t.Errorf("NormalizeVariant(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCoverHashFromPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{testHash + ".jpg", testHash},
		{strings.ToUpper(testHash) + ".png", testHash},
		{testHash + "__grid.avif", testHash},
		{filepath.Join("/cache", testHash+".webp"), testHash},
		{"cover.jpg", ""},
		{"", ""},
		{"0123.jpg", ""},
		{strings.Repeat("z", 64) + ".jpg", ""},
	}

	for _, tc := range cases {
		if got := CoverHashFromPath(tc.in); got != tc.want {
			t.Errorf("CoverHashFromPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVariantPath(t *testing.T) {
	t.Parallel()

	cachePath := filepath.Join("/cache", testHash+".jpg")

	original, ok := VariantPath(cachePath, VariantOriginal)
	if !ok || original != cachePath {
		t.Fatalf("expected the original path back, got %q (%v)", original, ok)
	}

	grid, ok := VariantPath(cachePath, VariantGrid)
	if !ok {
		t.Fatalf("expected a grid variant path")
	}
	want := filepath.Join("/cache", testHash+"__grid"+thumbnailExtension)
	if grid != want {
		t.Fatalf("expected %q, got %q", want, grid)
	}

	if _, ok := VariantPath(filepath.Join("/cache", "not-a-hash.jpg"), VariantGrid); ok {
		t.Fatalf("expected non-hash cache names to be rejected")
	}
}
