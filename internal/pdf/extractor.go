// Package pdf reads the text layer, the table layer and page rasters of
// time-card documents.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// Config controls extraction.
type Config struct {
	// RenderScale multiplies the 72 DPI page size when rasterizing for OCR.
	RenderScale float64
	// MaxPages limits how many pages are read; 0 reads all.
	MaxPages int
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{RenderScale: 4}
}

// Extractor pulls both layers of a document. Either layer may be the only
// one carrying a field, so both are always attempted.
type Extractor struct {
	cfg    Config
	logger *zap.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.RenderScale < 4 {
		cfg.RenderScale = 4
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract reads path. It never panics on a malformed file: when neither
// layer can be read it returns an empty document and an error wrapping
// timesheet.ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, path string) (*timesheet.Document, error) {
	if err := ctx.Err(); err != nil {
		return timesheet.NewDocument(path, nil, nil, nil), err
	}
	if _, err := os.Stat(path); err != nil {
		return timesheet.NewDocument(path, nil, nil, nil), fmt.Errorf("%w: %v", timesheet.ErrExtractionFailed, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if isImageExt(ext) {
		// scanned card delivered as a picture: no layers, OCR only
		render := func(ctx context.Context) ([]image.Image, error) { return readImageFile(path) }
		return timesheet.NewDocument(path, nil, nil, render), nil
	}
	if ext != ".pdf" {
		return timesheet.NewDocument(path, nil, nil, nil), fmt.Errorf("%w: unsupported file type %s", timesheet.ErrExtractionFailed, ext)
	}

	pages, textErr := readTextLayer(path, e.cfg.MaxPages)
	if textErr == nil && len(pages) == 0 {
		textErr = errors.New("document has no pages")
	}
	if textErr != nil {
		e.logger.Warn("Text layer extraction failed", zap.String("path", path), zap.Error(textErr))
	}
	for i := range pages {
		pages[i] = textnorm.Normalize(pages[i])
	}

	rows, tableErr := readTableLayer(path, e.cfg.MaxPages)
	if tableErr != nil {
		e.logger.Warn("Table layer extraction failed", zap.String("path", path), zap.Error(tableErr))
	}

	if textErr != nil && tableErr != nil {
		return timesheet.NewDocument(path, nil, nil, nil),
			fmt.Errorf("%w: %v", timesheet.ErrExtractionFailed, errors.Join(textErr, tableErr))
	}

	e.logger.Debug("Extracted document layers",
		zap.String("path", path),
		zap.Int("pages", len(pages)),
		zap.Int("table_rows", len(rows)))

	dpi := 72 * e.cfg.RenderScale
	maxPages := e.cfg.MaxPages
	render := func(ctx context.Context) ([]image.Image, error) {
		return renderPages(ctx, path, dpi, maxPages, e.logger)
	}
	return timesheet.NewDocument(path, pages, rows, render), nil
}

// PlainText re-reads the text layer with the second PDF parser. It is the
// last fallback when OCR is unavailable.
func (e *Extractor) PlainText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return "", fmt.Errorf("%w: no text layer in %s", timesheet.ErrExtractionFailed, filepath.Base(path))
	}
	text, err := readPlainText(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", timesheet.ErrExtractionFailed, err)
	}
	return textnorm.Normalize(text), nil
}

func isImageExt(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
