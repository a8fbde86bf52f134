// Package ocr recognizes text in rasterized time-card pages.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultWhitelist restricts recognition to letters, accented Latin letters,
// digits and the punctuation found on time cards.
const DefaultWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"ÀÁÂÃÇÉÊÍÓÔÕÚàáâãçéêíóôõú0123456789.,:-/ "

// Engine turns one encoded page image into text.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// EngineConfig configures the Tesseract engine.
type EngineConfig struct {
	Language    string
	Whitelist   string
	PageSegMode int
}

// TesseractEngine runs recognition through libtesseract. A client is created
// per call because gosseract clients are not safe for concurrent use.
type TesseractEngine struct {
	cfg           EngineConfig
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine creates the engine.
func NewTesseractEngine(cfg EngineConfig) *TesseractEngine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Whitelist == "" {
		cfg.Whitelist = DefaultWhitelist
	}
	if cfg.PageSegMode == 0 {
		cfg.PageSegMode = int(gosseract.PSM_SINGLE_BLOCK)
	}
	return &TesseractEngine{cfg: cfg, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize runs one pass over a PNG image.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(strings.Split(e.cfg.Language, "+")...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetWhitelist(e.cfg.Whitelist); err != nil {
		return "", fmt.Errorf("set whitelist: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
