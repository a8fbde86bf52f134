package pdf

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// renderPages rasterizes every page at dpi using MuPDF.
func renderPages(ctx context.Context, path string, dpi float64, maxPages int, logger *zap.Logger) (images []image.Image, err error) {
	defer recoverParse(&err)

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := pageLimit(doc.NumPage(), maxPages)
	logger.Debug("Rendering pages", zap.String("path", path), zap.Int("pages", n), zap.Float64("dpi", dpi))

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			logger.Warn("Failed to render page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages rendered from %s", filepath.Base(path))
	}
	return images, nil
}

// readImageFile decodes a scanned card supplied as an image.
func readImageFile(path string) ([]image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".png":
		img, err = png.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return []image.Image{img}, nil
}
