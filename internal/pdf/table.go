package pdf

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// glyph is one positioned text run on a row.
type glyph struct {
	X    float64
	W    float64
	Size float64
	S    string
}

// cell is a run of glyphs between column gaps.
type cell struct {
	X0, X1 float64
	S      string
}

func (c cell) center() float64 { return (c.X0 + c.X1) / 2 }

var (
	punchLabel = regexp.MustCompile(`^(ent|sai)`)
	rowDate    = regexp.MustCompile(`^\d{2}/\d{2}/\d{2,4}`)
)

// readTableLayer rebuilds table rows from positioned text. Runs on the same
// baseline are split into cells wherever the horizontal gap is wide enough
// to be a column separator.
func readTableLayer(path string, maxPages int) (rows [][]string, err error) {
	defer recoverParse(&err)

	f, r, err := lpdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n := pageLimit(r.NumPage(), maxPages)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageRows, err := p.GetTextByRow()
		if err != nil {
			return rows, fmt.Errorf("failed to read rows of page %d: %w", i, err)
		}
		lines := make([][]glyph, 0, len(pageRows))
		for _, row := range pageRows {
			glyphs := make([]glyph, 0, len(row.Content))
			for _, t := range row.Content {
				glyphs = append(glyphs, glyph{X: t.X, W: t.W, Size: t.FontSize, S: t.S})
			}
			lines = append(lines, glyphs)
		}
		rows = append(rows, layoutRows(lines)...)
	}
	return rows, nil
}

// layoutRows turns the lines of one page into cell rows. Once a header with
// one column per punch (Ent/Sai labels) is seen, dated rows below it are
// snapped to the header columns, so a missing punch leaves an empty cell
// instead of shifting the later punches left.
func layoutRows(lines [][]glyph) [][]string {
	var (
		rows   [][]string
		header []cell
	)
	for _, line := range lines {
		cells := splitCells(line)
		if len(cells) == 0 {
			continue
		}
		switch {
		case isPunchHeader(cells):
			header = cells
			rows = append(rows, cellTexts(cells))
		case header != nil && rowDate.MatchString(cells[0].S):
			rows = append(rows, alignCells(cells, header))
		default:
			rows = append(rows, cellTexts(cells))
		}
	}
	return rows
}

// isPunchHeader reports whether at least four cells are punch labels.
func isPunchHeader(cells []cell) bool {
	n := 0
	for _, c := range cells {
		if punchLabel.MatchString(textnorm.FoldLower(c.S)) {
			n++
		}
	}
	return n >= 4
}

// alignCells places every cell under the header column whose center is
// nearest. Columns without a cell stay empty.
func alignCells(cells, header []cell) []string {
	out := make([]string, len(header))
	for _, c := range cells {
		best, dist := 0, math.Inf(1)
		for j, h := range header {
			if d := math.Abs(c.center() - h.center()); d < dist {
				best, dist = j, d
			}
		}
		if out[best] != "" {
			out[best] += " "
		}
		out[best] += c.S
	}
	return out
}

func cellTexts(cells []cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.S
	}
	return out
}

// splitCells groups glyphs into cells. A gap wider than 1.5 font sizes starts
// a new cell; a smaller visible gap becomes a space.
func splitCells(glyphs []glyph) []cell {
	if len(glyphs) == 0 {
		return nil
	}
	sorted := append([]glyph(nil), glyphs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []cell
	var cur strings.Builder
	start, end := sorted[0].X, sorted[0].X
	for i, g := range sorted {
		size := g.Size
		if size <= 0 {
			size = 10
		}
		gap := g.X - end
		switch {
		case i == 0:
		case gap > 1.5*size:
			cells = append(cells, cell{X0: start, X1: end, S: cur.String()})
			cur.Reset()
			start = g.X
		case gap > 0.2*size && !strings.HasPrefix(g.S, " "):
			cur.WriteByte(' ')
		}
		cur.WriteString(g.S)
		end = math.Max(end, g.X+g.W)
	}
	cells = append(cells, cell{X0: start, X1: end, S: cur.String()})

	nonEmpty := false
	for i := range cells {
		cells[i].S = textnorm.NormalizeCell(cells[i].S)
		if cells[i].S != "" {
			nonEmpty = true
		}
	}
	if !nonEmpty {
		return nil
	}
	return cells
}
