// Package allowlist holds the set of employee names eligible for output.
package allowlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/garyjia/timecard-reconciler/internal/textnorm"
)

// Allowlist is an immutable set of canonical employee names matched case-
// and accent-insensitively. The zero value is empty; an empty allowlist falls
// back to a structural plausibility check on candidate names.
type Allowlist struct {
	byKey map[string]string
	names []string
}

// New builds an allowlist from canonical names. Blank entries are skipped and
// the first spelling of a duplicate wins.
func New(names []string) *Allowlist {
	a := &Allowlist{byKey: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(strings.TrimPrefix(n, "\uFEFF"))
		if n == "" || strings.HasPrefix(n, "#") {
			continue
		}
		key := textnorm.Fold(n)
		if _, dup := a.byKey[key]; dup {
			continue
		}
		a.byKey[key] = n
		a.names = append(a.names, n)
	}
	return a
}

// Read parses one canonical name per line.
func Read(r io.Reader) (*Allowlist, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !utf8.ValidString(line) {
			return nil, fmt.Errorf("allowlist line %d is not valid UTF-8", len(names)+1)
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read allowlist: %w", err)
	}
	return New(names), nil
}

// LoadFile reads an allowlist file.
func LoadFile(path string) (*Allowlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open allowlist: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// NameSource lists canonical names from some store, such as the employees
// table.
type NameSource interface {
	ActiveEmployeeNames(ctx context.Context) ([]string, error)
}

// Load builds an allowlist from a NameSource.
func Load(ctx context.Context, src NameSource) (*Allowlist, error) {
	names, err := src.ActiveEmployeeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load allowlist: %w", err)
	}
	return New(names), nil
}

// Len returns the number of names.
func (a *Allowlist) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

// Names returns a copy of the canonical names in load order.
func (a *Allowlist) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.names...)
}

// Match returns the canonical spelling for candidate. With an empty
// allowlist the candidate itself is returned when it looks like a person's
// name.
func (a *Allowlist) Match(candidate string) (string, bool) {
	candidate = strings.Join(strings.Fields(candidate), " ")
	if candidate == "" {
		return "", false
	}
	if a.Len() == 0 {
		if PlausibleName(candidate) {
			return candidate, true
		}
		return "", false
	}
	name, ok := a.byKey[textnorm.Fold(candidate)]
	return name, ok
}

// Contains reports whether name matches an entry.
func (a *Allowlist) Contains(name string) bool {
	_, ok := a.Match(name)
	return ok
}

var hasDigit = regexp.MustCompile(`\d`)

// PlausibleName is the structural check used when no allowlist is loaded:
// at least two words of two or more letters, no digits, no stray symbols and
// no boilerplate phrase.
func PlausibleName(s string) bool {
	if s == "" || hasDigit.MatchString(s) || strings.ContainsAny(s, "[]<>@^\\:/") {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return false
		}
	}
	return !IsExcluded(s)
}
