package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

func TestSplitCells_ColumnGaps(t *testing.T) {
	glyphs := []glyph{
		{X: 10, W: 40, Size: 8, S: "03/03/2025"},
		{X: 80, W: 20, Size: 8, S: "08:00"},
		{X: 102, W: 20, Size: 8, S: "12:00"},
		{X: 160, W: 20, Size: 8, S: "13:00"},
		{X: 182, W: 20, Size: 8, S: "17:00"},
		{X: 240, W: 30, Size: 8, S: "08:00:00"},
	}

	cells := splitCells(glyphs)

	assert.Equal(t, []string{"03/03/2025", "08:00 12:00", "13:00 17:00", "08:00:00"}, cellTexts(cells))
	assert.Equal(t, 80.0, cells[1].X0)
	assert.Equal(t, 122.0, cells[1].X1)
}

func TestSplitCells_UnsortedAndPerCharacter(t *testing.T) {
	glyphs := []glyph{
		{X: 15, W: 5, Size: 10, S: "B"},
		{X: 10, W: 5, Size: 10, S: "A"},
		{X: 100, W: 5, Size: 10, S: "C"},
	}

	assert.Equal(t, []string{"AB", "C"}, cellTexts(splitCells(glyphs)))
}

func TestSplitCells_Empty(t *testing.T) {
	assert.Nil(t, splitCells(nil))
	assert.Nil(t, splitCells([]glyph{{X: 1, W: 1, Size: 8, S: "  "}}))
}

func punchLine(date string, punches ...string) []glyph {
	line := []glyph{{X: 10, W: 40, Size: 8, S: date}}
	for i, p := range punches {
		if p == "" {
			continue
		}
		line = append(line, glyph{X: 80 + float64(i)*50, W: 20, Size: 8, S: p})
	}
	return append(line, glyph{X: 290, W: 30, Size: 8, S: "08:00:00"})
}

func TestLayoutRows_AlignsPunchColumns(t *testing.T) {
	lines := [][]glyph{
		{{X: 10, W: 80, Size: 8, S: "MARIA SOUZA LIMA"}},
		{
			{X: 20, W: 20, Size: 8, S: "Data"},
			{X: 80, W: 20, Size: 8, S: "Ent. 1"},
			{X: 130, W: 20, Size: 8, S: "Saí. 1"},
			{X: 180, W: 20, Size: 8, S: "Ent. 2"},
			{X: 230, W: 20, Size: 8, S: "Saí. 2"},
			{X: 290, W: 30, Size: 8, S: "C.PRE"},
		},
		punchLine("03/03/2025", "08:00", "", "13:00", "17:00"),
		punchLine("04/03/2025", "08:00", "12:00", "13:00", "17:00"),
	}

	rows := layoutRows(lines)

	require.Len(t, rows, 4)
	assert.Equal(t, []string{"MARIA SOUZA LIMA"}, rows[0])
	assert.Len(t, rows[1], 6)
	assert.Equal(t, []string{"03/03/2025", "08:00", "", "13:00", "17:00", "08:00:00"}, rows[2])
	assert.Equal(t, []string{"04/03/2025", "08:00", "12:00", "13:00", "17:00", "08:00:00"}, rows[3])
}

func TestLayoutRows_NoHeaderKeepsCells(t *testing.T) {
	rows := layoutRows([][]glyph{punchLine("03/03/2025", "08:00", "", "13:00", "17:00")})

	require.Len(t, rows, 1)
	assert.Equal(t, []string{"03/03/2025", "08:00", "13:00", "17:00", "08:00:00"}, rows[0])
}

func TestExtract_MissingFile(t *testing.T) {
	e := NewExtractor(DefaultConfig(), zap.NewNop())

	doc, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, timesheet.ErrExtractionFailed))
	require.NotNil(t, doc)
	assert.Empty(t, doc.PageTexts)
	assert.Empty(t, doc.TableRows)
}

func TestExtract_MalformedPDFDoesNotPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\nthis is not a pdf body"), 0o644))
	e := NewExtractor(DefaultConfig(), zap.NewNop())

	var (
		doc *timesheet.Document
		err error
	)
	assert.NotPanics(t, func() {
		doc, err = e.Extract(context.Background(), path)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, timesheet.ErrExtractionFailed))
	assert.NotNil(t, doc)
}

func TestExtract_UnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.docx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	e := NewExtractor(DefaultConfig(), zap.NewNop())

	_, err := e.Extract(context.Background(), path)

	assert.ErrorIs(t, err, timesheet.ErrExtractionFailed)
}

func TestNewExtractor_ClampsScale(t *testing.T) {
	e := NewExtractor(Config{RenderScale: 2}, zap.NewNop())
	assert.Equal(t, 4.0, e.cfg.RenderScale)
}
