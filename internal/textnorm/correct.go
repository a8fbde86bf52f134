package textnorm

import (
	"regexp"
	"strings"
)

// OCRDigitCorrections maps characters the recognizer commonly confuses with
// digits. It is applied only inside tokens shaped like times or dates.
var OCRDigitCorrections = map[rune]rune{
	'O': '0',
	'o': '0',
	'D': '0',
	'Q': '0',
	'I': '1',
	'l': '1',
	'|': '1',
	'Z': '2',
	'S': '5',
	's': '5',
	'B': '8',
}

var numericToken = regexp.MustCompile(`^[0-9OoDQIl|ZSsB]{1,4}(?:[:/.][0-9OoDQIl|ZSsB]{1,4})+$`)

// CorrectNumericTokens rewrites misread characters inside time and date
// tokens ("O8:3O" becomes "08:30"). Tokens without a real digit, such as
// words, are left alone.
func CorrectNumericTokens(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		fields := strings.Split(line, " ")
		for j, f := range fields {
			fields[j] = correctToken(f)
		}
		lines[i] = strings.Join(fields, " ")
	}
	return strings.Join(lines, "\n")
}

func correctToken(tok string) string {
	if !numericToken.MatchString(tok) || !strings.ContainsAny(tok, "0123456789") {
		return tok
	}
	return strings.Map(func(r rune) rune {
		if d, ok := OCRDigitCorrections[r]; ok {
			return d
		}
		return r
	}, tok)
}

// NormalizeOCR normalizes recognizer output and corrects numeric tokens.
func NormalizeOCR(s string) string {
	return CorrectNumericTokens(Normalize(s))
}
