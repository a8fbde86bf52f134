package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// Recognizer rasterizes a document and runs the engine over every page. The
// result is cached on the document, so the header, entry and signature steps
// share one pass.
type Recognizer struct {
	engine Engine
	cfg    PreprocessConfig
	logger *zap.Logger
}

// NewRecognizer creates a recognizer. engine may be nil when OCR is disabled;
// every call then reports timesheet.ErrOCRUnavailable.
func NewRecognizer(engine Engine, cfg PreprocessConfig, logger *zap.Logger) *Recognizer {
	return &Recognizer{engine: engine, cfg: cfg, logger: logger}
}

// Recognize returns the normalized OCR text of doc. Engine or render failures
// wrap timesheet.ErrOCRUnavailable. A page that yields no text is not an
// error.
func (r *Recognizer) Recognize(ctx context.Context, doc *timesheet.Document) (string, error) {
	return doc.OCRText(func() (string, error) {
		return r.recognize(ctx, doc)
	})
}

func (r *Recognizer) recognize(ctx context.Context, doc *timesheet.Document) (string, error) {
	if r.engine == nil {
		return "", timesheet.ErrOCRUnavailable
	}

	images, err := doc.Images(ctx)
	if err != nil {
		if errors.Is(err, timesheet.ErrOCRUnavailable) || ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: render failed: %v", timesheet.ErrOCRUnavailable, err)
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data, err := EncodePNG(Preprocess(img, r.cfg))
		if err != nil {
			return "", fmt.Errorf("%w: %v", timesheet.ErrOCRUnavailable, err)
		}
		text, err := r.engine.Recognize(ctx, data)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Warn("OCR engine failed",
				zap.String("path", doc.Path),
				zap.String("engine", r.engine.Name()),
				zap.Int("page", i+1),
				zap.Error(err))
			return "", fmt.Errorf("%w: %v", timesheet.ErrOCRUnavailable, err)
		}
		pages = append(pages, text)
	}

	text := textnorm.NormalizeOCR(strings.Join(pages, "\n"))
	r.logger.Debug("OCR finished",
		zap.String("path", doc.Path),
		zap.Int("pages", len(images)),
		zap.Int("chars", len(text)))
	return text, nil
}
