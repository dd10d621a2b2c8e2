package artwork

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/avif"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// GenerateThumbnails renders the AVIF variant set for a cached original.
// Variants that already exist are left untouched. Originals in formats we
// do not decode are skipped, not transcoded.
func GenerateThumbnails(cachePath string) error {
	coverHash := CoverHashFromPath(cachePath)
	if coverHash == "" {
		return fmt.Errorf("not a cache path: %s", cachePath)
	}

	cacheDir := filepath.Dir(cachePath)
	missing := make([]Variant, 0, len(thumbnailVariants))
	for _, variant := range thumbnailVariants {
		if _, err := os.Stat(thumbnailPath(cacheDir, coverHash, variant)); os.IsNotExist(err) {
			missing = append(missing, variant)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	source, err := decodeImageFile(cachePath)
	if err != nil {
		return err
	}

	for _, variant := range missing {
		destination := thumbnailPath(cacheDir, coverHash, variant)
		if err := encodeThumbnail(source, variantEdges[variant], destination); err != nil {
			return fmt.Errorf("encode %s variant for %s: %w", variant, cachePath, err)
		}
	}

	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		decoded, err := jpeg.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode jpeg %s: %w", path, err)
		}
		return decoded, nil
	case ".png":
		decoded, err := png.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode png %s: %w", path, err)
		}
		return decoded, nil
	case ".webp":
		decoded, err := webp.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("decode webp %s: %w", path, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported image format: %s", path)
	}
}

func encodeThumbnail(source image.Image, size int, destination string) error {
	bounds := source.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("empty source image")
	}

	targetWidth := size
	targetHeight := size
	if width > height {
		targetHeight = (height * size) / width
	} else {
		targetWidth = (width * size) / height
	}
	if targetWidth < 1 {
		targetWidth = 1
	}
	if targetHeight < 1 {
		targetHeight = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), source, bounds, draw.Over, nil)

	out, err := os.OpenFile(destination, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}

	if err := avif.Encode(out, scaled); err != nil {
		out.Close()
		os.Remove(destination)
		return err
	}

	return out.Close()
}
