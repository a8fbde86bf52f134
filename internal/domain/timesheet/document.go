package timesheet

import (
	"context"
	"image"
	"strings"
	"sync"
)

// RenderFunc rasterizes every page of a document.
type RenderFunc func(ctx context.Context) ([]image.Image, error)

// Document is one extracted input file. Its text and table layers are fixed
// at extraction time; page images are rendered on first use only.
type Document struct {
	Path      string
	PageTexts []string
	TableRows [][]string

	render    RenderFunc
	once      sync.Once
	images    []image.Image
	renderErr error

	mu      sync.Mutex
	ocrDone bool
	ocrText string
	ocrErr  error
}

// NewDocument wraps extracted layers. render may be nil when the source
// cannot be rasterized.
func NewDocument(path string, pageTexts []string, tableRows [][]string, render RenderFunc) *Document {
	return &Document{
		Path:      path,
		PageTexts: pageTexts,
		TableRows: tableRows,
		render:    render,
	}
}

// Images renders the pages once and returns the cached result afterwards.
func (d *Document) Images(ctx context.Context) ([]image.Image, error) {
	d.once.Do(func() {
		if d.render == nil {
			d.renderErr = ErrOCRUnavailable
			return
		}
		d.images, d.renderErr = d.render(ctx)
	})
	return d.images, d.renderErr
}

// Text joins the page texts with newlines.
func (d *Document) Text() string {
	return strings.Join(d.PageTexts, "\n")
}

// TableText joins every table row into one line per row.
func (d *Document) TableText() string {
	lines := make([]string, 0, len(d.TableRows))
	for _, row := range d.TableRows {
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n")
}

// OCRText returns the recognized text, running recognize on the first call
// only. Later callers share the first result, including its error.
func (d *Document) OCRText(recognize func() (string, error)) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ocrDone {
		d.ocrText, d.ocrErr = recognize()
		d.ocrDone = true
	}
	return d.ocrText, d.ocrErr
}
