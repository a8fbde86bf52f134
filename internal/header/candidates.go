package header

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// capsRuns returns runs of consecutive all-caps words on each line of text
// holding at least minWords words.
func capsRuns(text string, minWords int) []string {
	var runs []string
	for _, line := range strings.Split(text, "\n") {
		var cur []string
		flush := func() {
			if len(cur) >= minWords {
				runs = append(runs, strings.Join(cur, " "))
			}
			cur = cur[:0]
		}
		for _, w := range strings.Fields(line) {
			if isCapsWord(w) {
				cur = append(cur, w)
				continue
			}
			flush()
		}
		flush()
	}
	return runs
}

// isCapsWord reports whether w is made of upper-case letters, optionally
// joined by an apostrophe or hyphen.
func isCapsWord(w string) bool {
	letters := 0
	for _, r := range w {
		switch {
		case unicode.IsUpper(r):
			letters++
		case r == '\'' || r == '-':
		default:
			return false
		}
	}
	return letters > 0
}

// windows expands a candidate into its contiguous sub-phrases of two or more
// words, longest first, so a name embedded in a label row can still match.
func windows(candidate string) []string {
	words := strings.Fields(candidate)
	if len(words) < 2 {
		if len(words) == 1 {
			return words
		}
		return nil
	}
	var out []string
	for size := len(words); size >= 2; size-- {
		for start := 0; start+size <= len(words); start++ {
			out = append(out, strings.Join(words[start:start+size], " "))
		}
	}
	return out
}

var (
	periodAnchor = regexp.MustCompile(`([\p{Lu}][\p{Lu} '\-]+?)\s*-\s*Per[ií]odo`)
	labelAnchor  = regexp.MustCompile(`(?i)(?:colaborador|nome|funcion[aá]rio)\s*:\s*([\p{L}][\p{L} '\-]*)`)
	shortDate    = regexp.MustCompile(`\d{2}/\d{2}`)
)

// tableCandidates returns all-caps runs of three or more words from the table
// layer.
func tableCandidates(tableRows [][]string, _ string) []string {
	var out []string
	for _, row := range tableRows {
		out = append(out, capsRuns(strings.Join(row, " "), 3)...)
	}
	return out
}

// anchoredCandidates returns names found next to layout labels.
func anchoredCandidates(_ [][]string, text string) []string {
	var out []string
	for _, m := range periodAnchor.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	for _, m := range labelAnchor.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// longestRunCandidates returns all-caps runs of at least 20 characters,
// longest first.
func longestRunCandidates(_ [][]string, text string) []string {
	var out []string
	for _, run := range capsRuns(text, 2) {
		if utf8.RuneCountInString(run) >= 20 {
			out = append(out, run)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}

// lineCandidates returns lines longer than ten characters holding letters
// and no date, truncated to 50 characters.
func lineCandidates(_ [][]string, text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= 10 || shortDate.MatchString(line) || !strings.ContainsFunc(line, unicode.IsLetter) {
			continue
		}
		if r := []rune(line); len(r) > 50 {
			line = strings.TrimSpace(string(r[:50]))
		}
		out = append(out, line)
	}
	return out
}
