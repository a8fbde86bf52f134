package pdf

import (
	"fmt"
	"io"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"
)

// readTextLayer returns the text of each page as rendered by MuPDF.
func readTextLayer(path string, maxPages int) (pages []string, err error) {
	defer recoverParse(&err)

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	n := pageLimit(doc.NumPage(), maxPages)
	pages = make([]string, 0, n)
	for i := 0; i < n; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return pages, fmt.Errorf("failed to read text of page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// readPlainText extracts the whole text stream with the pure-Go parser.
func readPlainText(path string) (text string, err error) {
	defer recoverParse(&err)

	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read plain text: %w", err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("failed to read plain text: %w", err)
	}
	return string(b), nil
}

// recoverParse turns a parser panic on a corrupt file into an error.
func recoverParse(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("malformed PDF: %v", p)
	}
}

func pageLimit(n, maxPages int) int {
	if maxPages > 0 && n > maxPages {
		return maxPages
	}
	return n
}
