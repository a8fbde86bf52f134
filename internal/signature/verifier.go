// Package signature decides whether a time card carries a signature marker.
package signature

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// Keyword is the authenticity term looked up first.
const Keyword = "assinado"

// Patterns are the digital-signature phrase variants, matched against folded
// lower-case text.
var Patterns = []*regexp.Regexp{
	regexp.MustCompile(`assinatura\s*(digital|eletronica)`),
	regexp.MustCompile(`documento\s*assinado`),
	regexp.MustCompile(`digitalmente\s*assinado`),
	regexp.MustCompile(`pre-?\s*assinado`),
	regexp.MustCompile(`assinado\s*(digitalmente|eletronicamente)`),
	regexp.MustCompile(`certificado\s*digital`),
}

// Tiers reported in a Verdict.
const (
	TierKeyword   = "keyword"
	TierPattern   = "pattern"
	TierOCR       = "ocr"
	TierPlainText = "plain_text"
	TierNone      = ""
)

// TextRecognizer returns OCR text for a document.
type TextRecognizer interface {
	Recognize(ctx context.Context, doc *timesheet.Document) (string, error)
}

// PlainTextSource re-extracts the raw text of a file.
type PlainTextSource interface {
	PlainText(ctx context.Context, path string) (string, error)
}

// Verdict is the outcome of verification.
type Verdict struct {
	Verified bool
	Tier     string
}

// Verifier runs the tiered check: keyword, phrase patterns, OCR, then a
// plain-text re-extraction when OCR is unavailable.
type Verifier struct {
	ocr    TextRecognizer
	plain  PlainTextSource
	logger *zap.Logger
}

// NewVerifier creates a verifier. Either collaborator may be nil, which skips
// its tier.
func NewVerifier(ocr TextRecognizer, plain PlainTextSource, logger *zap.Logger) *Verifier {
	return &Verifier{ocr: ocr, plain: plain, logger: logger}
}

// Verify checks the text layer and table cells of doc first and falls back
// to recognition. An unsigned document is a valid outcome, not an error; the
// only error returned is context cancellation.
func (v *Verifier) Verify(ctx context.Context, doc *timesheet.Document) (Verdict, error) {
	text := doc.Text() + "\n" + doc.TableText()
	if tier, ok := Match(text); ok {
		return Verdict{Verified: true, Tier: tier}, nil
	}

	var ocrErr error
	if v.ocr != nil {
		var ocrText string
		ocrText, ocrErr = v.ocr.Recognize(ctx, doc)
		if err := ctx.Err(); err != nil {
			return Verdict{}, err
		}
		if ocrErr == nil {
			if _, ok := Match(ocrText); ok {
				return Verdict{Verified: true, Tier: TierOCR}, nil
			}
			v.logger.Debug("No signature marker in OCR text", zap.String("path", doc.Path))
			return Verdict{Tier: TierNone}, nil
		}
	}

	if v.ocr == nil || errors.Is(ocrErr, timesheet.ErrOCRUnavailable) {
		if ocrErr != nil {
			v.logger.Warn("OCR unavailable for signature check, using plain text",
				zap.String("path", doc.Path), zap.Error(ocrErr))
		}
		if v.plain != nil {
			plain, err := v.plain.PlainText(ctx, doc.Path)
			if err := ctx.Err(); err != nil {
				return Verdict{}, err
			}
			if err != nil {
				v.logger.Debug("Plain text fallback failed", zap.String("path", doc.Path), zap.Error(err))
			} else if _, ok := Match(plain); ok {
				return Verdict{Verified: true, Tier: TierPlainText}, nil
			}
		}
	}
	return Verdict{Tier: TierNone}, nil
}

// Match runs the keyword and pattern tiers over text and reports which one
// matched.
func Match(text string) (string, bool) {
	folded := textnorm.FoldLower(text)
	if folded == "" {
		return TierNone, false
	}
	if strings.Contains(folded, Keyword) {
		return TierKeyword, true
	}
	for _, p := range Patterns {
		if p.MatchString(folded) {
			return TierPattern, true
		}
	}
	return TierNone, false
}
