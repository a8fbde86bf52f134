// Package textnorm cleans text pulled from PDF text layers and OCR output.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	cidPlaceholder  = regexp.MustCompile(`\(cid:\d+\)`)
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	spaceAroundEOL  = regexp.MustCompile(` ?\n ?`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

// stray glyphs some producers emit in place of unmapped characters
const noiseChars = "[]<>@^\\"

// Normalize removes control characters, font placeholders such as (cid:12)
// and encoding noise, collapses whitespace runs and drops blank lines.
// Line structure is kept. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, " ")
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = cidPlaceholder.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\r':
			return '\n'
		case r == utf8.RuneError:
			return ' '
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
			return ' '
		case strings.ContainsRune(noiseChars, r):
			return ' '
		}
		return r
	}, s)
	s = horizontalSpace.ReplaceAllString(s, " ")
	s = spaceAroundEOL.ReplaceAllString(s, "\n")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// NormalizeCell normalizes a single table cell onto one line.
func NormalizeCell(s string) string {
	return strings.ReplaceAll(Normalize(s), "\n", " ")
}

// IsInsufficient reports whether extracted text is too poor to parse: fewer
// than minChars characters after normalization, or no letters at all.
func IsInsufficient(s string, minChars int) bool {
	s = Normalize(s)
	if utf8.RuneCountInString(s) < minChars {
		return true
	}
	return strings.IndexFunc(s, unicode.IsLetter) < 0
}
