package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/aggregate"
	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/entries"
	"github.com/garyjia/timecard-reconciler/internal/header"
	"github.com/garyjia/timecard-reconciler/internal/signature"
)

type fakeExtractor struct {
	docs  map[string]*timesheet.Document
	delay time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (*timesheet.Document, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	doc, ok := f.docs[path]
	if !ok {
		return timesheet.NewDocument(path, nil, nil, nil), fmt.Errorf("%w: cannot open %s", timesheet.ErrExtractionFailed, path)
	}
	return doc, nil
}

type fakeOCR struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeOCR) Recognize(_ context.Context, doc *timesheet.Document) (string, error) {
	return doc.OCRText(func() (string, error) {
		f.mu.Lock()
		f.calls++
		f.mu.Unlock()
		return f.text, f.err
	})
}

// tableRows builds a month of rows for March 2025.
func tableRows(name string, days int, special map[int]string) [][]string {
	rows := [][]string{{"FOLHA DE PONTO"}, {name}}
	for d := 1; d <= days; d++ {
		date := fmt.Sprintf("%02d/03/2025", d)
		if marker, ok := special[d]; ok {
			rows = append(rows, []string{date, marker, "", "08:00:00"})
			continue
		}
		rows = append(rows, []string{date, "08:00 12:00", "13:00 17:00", "08:00:00"})
	}
	return rows
}

func newProcessor(list *allowlist.Allowlist, ext Extractor, ocr Recognizer, cfg Config) *Processor {
	logger := zap.NewNop()
	return NewProcessor(
		ext,
		ocr,
		header.NewResolver(list, logger),
		entries.NewParser(logger),
		aggregate.NewAggregator(0, logger),
		signature.NewVerifier(ocr, nil, logger),
		cfg,
		logger,
	)
}

var filler = strings.Repeat("Espelho de ponto eletronico emitido pelo sistema de RH. ", 3)

func TestProcess_TwentyTwoNormalDays(t *testing.T) {
	doc := timesheet.NewDocument("a.pdf", []string{filler + "\nDocumento assinado digitalmente"}, tableRows("MARIA SOUZA LIMA", 22, nil), nil)
	p := newProcessor(allowlist.New([]string{"Maria Souza Lima"}), &fakeExtractor{docs: map[string]*timesheet.Document{"a.pdf": doc}}, &fakeOCR{}, DefaultConfig())

	out := p.Process(context.Background(), "a.pdf")

	require.Nil(t, out.Failure)
	ts := out.Timesheet
	assert.Equal(t, "Maria Souza Lima", ts.EmployeeName)
	assert.Equal(t, "03/2025", ts.Period.String())
	assert.Equal(t, "176:00", ts.Expected())
	assert.Equal(t, "176:00", ts.Worked())
	assert.Equal(t, "+00:00", ts.Balance())
	assert.True(t, ts.SignatureVerified)
}

func TestProcess_HolidayDay(t *testing.T) {
	doc := timesheet.NewDocument("b.pdf", []string{filler}, tableRows("MARIA SOUZA LIMA", 22, map[int]string{5: "FERIADO"}), nil)
	p := newProcessor(allowlist.New([]string{"Maria Souza Lima"}), &fakeExtractor{docs: map[string]*timesheet.Document{"b.pdf": doc}}, &fakeOCR{}, DefaultConfig())

	out := p.Process(context.Background(), "b.pdf")

	require.Nil(t, out.Failure)
	ts := out.Timesheet
	assert.Equal(t, "176:00", ts.Expected())
	assert.Equal(t, "176:00", ts.Worked())
	assert.Equal(t, timesheet.Special, ts.Records[4].Classification)
}

func TestProcess_AccentInsensitiveName(t *testing.T) {
	doc := timesheet.NewDocument("c.pdf", []string{filler + "\nassinado"}, tableRows("JOÃO DA SILVA", 3, nil), nil)
	p := newProcessor(allowlist.New([]string{"João da Silva"}), &fakeExtractor{docs: map[string]*timesheet.Document{"c.pdf": doc}}, &fakeOCR{}, DefaultConfig())

	out := p.Process(context.Background(), "c.pdf")

	require.Nil(t, out.Failure)
	assert.Equal(t, "João da Silva", out.Timesheet.EmployeeName)
}

func TestProcess_UnsignedWhenOCRFails(t *testing.T) {
	doc := timesheet.NewDocument("d.pdf", []string{filler}, tableRows("MARIA SOUZA LIMA", 3, nil), nil)
	ocr := &fakeOCR{err: timesheet.ErrOCRUnavailable}
	p := newProcessor(allowlist.New([]string{"Maria Souza Lima"}), &fakeExtractor{docs: map[string]*timesheet.Document{"d.pdf": doc}}, ocr, DefaultConfig())

	out := p.Process(context.Background(), "d.pdf")

	require.Nil(t, out.Failure)
	assert.False(t, out.Timesheet.SignatureVerified)
	assert.Equal(t, 1, ocr.calls)
}

func TestProcess_OCRFallbackForScannedCard(t *testing.T) {
	scanned := "MARIA SOUZA LIMA - Período 01/03/2025 a 31/03/2025\n" +
		"03/03/2025 SEG 08:00 12:00 13:00 17:00 08:00:00\n" +
		"04/03/2025 TER 08:00 12:00 13:00 16:00 08:00:00\n" +
		"Assinado eletronicamente"
	doc := timesheet.NewDocument("e.pdf", nil, nil, nil)
	ocr := &fakeOCR{text: scanned}
	p := newProcessor(allowlist.New([]string{"Maria Souza Lima"}), &fakeExtractor{docs: map[string]*timesheet.Document{"e.pdf": doc}}, ocr, DefaultConfig())

	out := p.Process(context.Background(), "e.pdf")

	require.Nil(t, out.Failure)
	ts := out.Timesheet
	assert.Len(t, ts.Records, 2)
	assert.Equal(t, "-01:00", ts.Balance())
	assert.True(t, ts.SignatureVerified)
	assert.Equal(t, 1, ocr.calls, "OCR text is shared with the signature check")
}

func TestProcess_Failures(t *testing.T) {
	list := allowlist.New([]string{"Maria Souza Lima"})
	docs := map[string]*timesheet.Document{
		"stranger.pdf": timesheet.NewDocument("stranger.pdf", []string{filler}, tableRows("CARLOS NOGUEIRA PRADO", 3, nil), nil),
		"empty.pdf":    timesheet.NewDocument("empty.pdf", []string{filler}, [][]string{{"MARIA SOUZA LIMA"}}, nil),
	}
	p := newProcessor(list, &fakeExtractor{docs: docs}, &fakeOCR{}, DefaultConfig())

	tests := []struct {
		path   string
		reason string
	}{
		{"missing.pdf", "ExtractionFailed"},
		{"stranger.pdf", "AllowlistMismatch"},
		{"empty.pdf", "ExtractionFailed"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := p.Process(context.Background(), tt.path)
			require.NotNil(t, out.Failure)
			assert.Nil(t, out.Timesheet)
			assert.Equal(t, tt.reason, out.Failure.Reason)
			assert.Equal(t, tt.path, out.Failure.Path)
		})
	}
}

func TestProcess_Timeout(t *testing.T) {
	ext := &fakeExtractor{docs: map[string]*timesheet.Document{}, delay: time.Second}
	p := newProcessor(allowlist.New(nil), ext, &fakeOCR{}, Config{DocumentTimeout: 20 * time.Millisecond})

	out := p.Process(context.Background(), "slow.pdf")

	require.NotNil(t, out.Failure)
	assert.Equal(t, "Timeout", out.Failure.Reason)
	assert.ErrorIs(t, out.Failure.Err, timesheet.ErrDocumentTimeout)
}

func TestProcess_AggregationError(t *testing.T) {
	doc := timesheet.NewDocument("f.pdf", []string{filler}, tableRows("MARIA SOUZA LIMA", 10, nil), nil)
	logger := zap.NewNop()
	ocr := &fakeOCR{}
	p := NewProcessor(
		&fakeExtractor{docs: map[string]*timesheet.Document{"f.pdf": doc}},
		ocr,
		header.NewResolver(allowlist.New([]string{"Maria Souza Lima"}), logger),
		entries.NewParser(logger),
		aggregate.NewAggregator(24*60, logger),
		signature.NewVerifier(ocr, nil, logger),
		DefaultConfig(),
		logger,
	)

	out := p.Process(context.Background(), "f.pdf")

	require.NotNil(t, out.Failure)
	assert.Equal(t, "AggregationError", out.Failure.Reason)
}

func TestBatch_Run(t *testing.T) {
	docs := map[string]*timesheet.Document{
		"a.pdf": timesheet.NewDocument("a.pdf", []string{filler}, tableRows("MARIA SOUZA LIMA", 5, nil), nil),
		"b.pdf": timesheet.NewDocument("b.pdf", []string{filler}, tableRows("JOÃO DA SILVA", 5, nil), nil),
	}
	p := newProcessor(allowlist.New([]string{"Maria Souza Lima", "João da Silva"}), &fakeExtractor{docs: docs}, &fakeOCR{}, DefaultConfig())

	res, err := NewBatch(p, 2, zap.NewNop()).Run(context.Background(), []string{"a.pdf", "broken.pdf", "b.pdf"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Documents)
	require.Len(t, res.Timesheets, 2)
	assert.Equal(t, "Maria Souza Lima", res.Timesheets[0].EmployeeName)
	assert.Equal(t, "João da Silva", res.Timesheets[1].EmployeeName)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "broken.pdf", res.Failures[0].Path)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}
