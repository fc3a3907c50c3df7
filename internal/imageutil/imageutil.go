// Package imageutil holds the small raster helpers the workflow needs:
// format gating, the local resolution check, rotation, and zip packaging.
package imageutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MinDimension is the smallest acceptable width/height before the image
// is flagged low-resolution and offered enhancement.
const MinDimension = 450

// DefaultMIME is assumed when the upload source declares no type
// (camera captures).
const DefaultMIME = "image/png"

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// AllowedMIME reports whether the declared type is an accepted raster
// format.
func AllowedMIME(mime string) bool {
	return allowedMIMEs[strings.ToLower(strings.TrimSpace(mime))]
}

// Dimensions decodes just the image header and returns width and height.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imageutil: decode config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// LowResolution reports whether either dimension falls under MinDimension.
func LowResolution(width, height int) bool {
	return width < MinDimension || height < MinDimension
}

// Rotate90 rotates the image 90 degrees clockwise and re-encodes it as
// PNG, matching the working-image convention that derived images are PNG.
func Rotate90(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageutil: decode: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			// (x, y) -> (maxY-1-y, x) in destination space.
			dst.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imageutil: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ZipImages bundles the images into an in-memory zip archive, naming each
// entry after the product.
func ZipImages(productName string, images [][]byte) ([]byte, error) {
	base := strings.ReplaceAll(strings.TrimSpace(productName), " ", "_")
	if base == "" {
		base = "product"
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, img := range images {
		w, err := zw.Create(fmt.Sprintf("%s_%d.png", base, i+1))
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(img); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
