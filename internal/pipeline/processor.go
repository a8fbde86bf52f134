// Package pipeline runs time cards through extraction, resolution, parsing,
// the hour policy, aggregation and signature verification.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/aggregate"
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/entries"
	"github.com/garyjia/timecard-reconciler/internal/header"
	"github.com/garyjia/timecard-reconciler/internal/policy"
	"github.com/garyjia/timecard-reconciler/internal/signature"
	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// Extractor reads the layers of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*timesheet.Document, error)
}

// Recognizer returns OCR text for a document.
type Recognizer interface {
	Recognize(ctx context.Context, doc *timesheet.Document) (string, error)
}

// SignatureVerifier decides whether a document is signed.
type SignatureVerifier interface {
	Verify(ctx context.Context, doc *timesheet.Document) (signature.Verdict, error)
}

// Config controls per-document processing.
type Config struct {
	// DocumentTimeout bounds the wall-clock time of one document; 0 disables it.
	DocumentTimeout time.Duration
	// MinTextChars is the text size below which OCR is attempted.
	MinTextChars int
}

// DefaultConfig returns the processing defaults.
func DefaultConfig() Config {
	return Config{DocumentTimeout: 5 * time.Minute, MinTextChars: 100}
}

// Outcome is the result of one document: a timesheet or a failure.
type Outcome struct {
	Path      string
	Timesheet *timesheet.MonthlyTimesheet
	Failure   *timesheet.DocumentFailure
}

// Processor handles one document at a time. It holds no per-document state
// and is safe for concurrent use.
type Processor struct {
	extractor  Extractor
	ocr        Recognizer
	resolver   *header.Resolver
	parser     *entries.Parser
	aggregator *aggregate.Aggregator
	verifier   SignatureVerifier
	cfg        Config
	logger     *zap.Logger
}

// NewProcessor wires the steps together.
func NewProcessor(
	extractor Extractor,
	ocr Recognizer,
	resolver *header.Resolver,
	parser *entries.Parser,
	aggregator *aggregate.Aggregator,
	verifier SignatureVerifier,
	cfg Config,
	logger *zap.Logger,
) *Processor {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = DefaultConfig().MinTextChars
	}
	return &Processor{
		extractor:  extractor,
		ocr:        ocr,
		resolver:   resolver,
		parser:     parser,
		aggregator: aggregator,
		verifier:   verifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Process runs one document end to end. Failures are returned in the
// outcome, never as a panic or a batch-level error.
func (p *Processor) Process(ctx context.Context, path string) Outcome {
	if p.cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DocumentTimeout)
		defer cancel()
	}

	done := make(chan Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- p.fail(path, fmt.Errorf("%w: panic: %v", timesheet.ErrExtractionFailed, r))
			}
		}()
		done <- p.process(ctx, path)
	}()

	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", timesheet.ErrDocumentTimeout, p.cfg.DocumentTimeout)
		}
		return p.fail(path, err)
	}
}

func (p *Processor) process(ctx context.Context, path string) Outcome {
	start := time.Now()
	logger := p.logger.With(zap.String("path", path))

	doc, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return p.fail(path, err)
	}

	pages := p.pageTexts(ctx, doc, logger)
	if err := ctx.Err(); err != nil {
		return p.fail(path, err)
	}

	h, err := p.resolver.Resolve(doc.TableRows, pages)
	if err != nil {
		return p.fail(path, err)
	}

	parsed := p.parser.Parse(doc.TableRows, pages)
	if len(parsed.Records) == 0 {
		return p.fail(path, fmt.Errorf("%w: no daily entries found", timesheet.ErrExtractionFailed))
	}

	ts := &timesheet.MonthlyTimesheet{
		SourcePath:     path,
		EmployeeName:   h.EmployeeName,
		Period:         h.Period,
		Records:        policy.Apply(parsed.Records),
		DuplicateDates: parsed.Duplicates,
	}
	if ts.Period.IsZero() {
		ts.Period = timesheet.PeriodOf(ts.Records[0].Date)
	}

	if err := p.aggregator.Aggregate(ts); err != nil {
		return p.fail(path, err)
	}

	verdict, err := p.verifier.Verify(ctx, doc)
	if err != nil {
		return p.fail(path, err)
	}
	ts.SignatureVerified = verdict.Verified

	logger.Info("Time card reconciled",
		zap.String("employee", ts.EmployeeName),
		zap.String("period", ts.Period.String()),
		zap.Int("days", len(ts.Records)),
		zap.String("balance", ts.Balance()),
		zap.Bool("signed", ts.SignatureVerified),
		zap.String("signature_tier", verdict.Tier),
		zap.Duration("elapsed", time.Since(start)))

	return Outcome{Path: path, Timesheet: ts}
}

// pageTexts returns the text used for header and entry parsing. When the
// layers are too thin the OCR text is appended; if OCR is unavailable the
// text layer is used as is.
func (p *Processor) pageTexts(ctx context.Context, doc *timesheet.Document, logger *zap.Logger) []string {
	pages := append([]string(nil), doc.PageTexts...)
	if !textnorm.IsInsufficient(doc.Text()+"\n"+doc.TableText(), p.cfg.MinTextChars) {
		return pages
	}

	logger.Info("Text layer insufficient, running OCR", zap.Int("chars", len(doc.Text())))
	if p.ocr == nil {
		return pages
	}
	text, err := p.ocr.Recognize(ctx, doc)
	if err != nil {
		logger.Warn("OCR fallback failed, continuing with text layer", zap.Error(err))
		return pages
	}
	if text != "" {
		pages = append(pages, text)
	}
	return pages
}

func (p *Processor) fail(path string, err error) Outcome {
	f := timesheet.NewDocumentFailure(path, err)
	p.logger.Warn("Document failed",
		zap.String("path", path),
		zap.String("reason", f.Reason),
		zap.Error(err))
	return Outcome{Path: path, Failure: &f}
}
