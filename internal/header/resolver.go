// Package header resolves the employee and period a time card belongs to.
package header

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

// Strategy produces name candidates from the document layers.
type Strategy struct {
	Name       string
	Candidates func(tableRows [][]string, text string) []string
}

// DefaultStrategies returns the resolution order: table layer, anchored
// labels, longest caps run, first plain line.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "table", Candidates: tableCandidates},
		{Name: "anchored", Candidates: anchoredCandidates},
		{Name: "longest_run", Candidates: longestRunCandidates},
		{Name: "first_line", Candidates: lineCandidates},
	}
}

// Header is the identity of a time card.
type Header struct {
	EmployeeName string
	Period       timesheet.Period
	Strategy     string
}

// Resolver matches header candidates against the allowlist.
type Resolver struct {
	allowlist  *allowlist.Allowlist
	strategies []Strategy
	logger     *zap.Logger
}

// NewResolver creates a resolver. The allowlist is shared read-only.
func NewResolver(list *allowlist.Allowlist, logger *zap.Logger) *Resolver {
	return &Resolver{allowlist: list, strategies: DefaultStrategies(), logger: logger}
}

// Resolve returns the canonical employee name and the period. When no
// candidate matches, EmployeeName is timesheet.Unresolved and the error wraps
// ErrHeaderUnresolved (nothing name-like found) or ErrAllowlistMismatch
// (candidates found, none on the allowlist). The period is resolved either
// way.
func (r *Resolver) Resolve(tableRows [][]string, pageTexts []string) (Header, error) {
	text := strings.Join(pageTexts, "\n")
	h := Header{EmployeeName: timesheet.Unresolved, Period: ResolvePeriod(tableRows, pageTexts)}

	var rejected []string
	for _, s := range r.strategies {
		for _, candidate := range s.Candidates(tableRows, text) {
			for _, w := range windows(candidate) {
				if allowlist.IsExcluded(w) {
					continue
				}
				if name, ok := r.allowlist.Match(w); ok {
					h.EmployeeName = name
					h.Strategy = s.Name
					r.logger.Debug("Resolved employee",
						zap.String("employee", name),
						zap.String("candidate", w),
						zap.String("strategy", s.Name))
					return h, nil
				}
				rejected = append(rejected, w)
			}
		}
	}

	if len(rejected) == 0 {
		return h, timesheet.ErrHeaderUnresolved
	}
	return h, fmt.Errorf("%w: best candidate %q", timesheet.ErrAllowlistMismatch, rejected[0])
}

var periodDate = regexp.MustCompile(`\d{2}/\d{2}/(?:\d{4}|\d{2})`)

// ResolvePeriod takes the month and year of the first date in the table
// layer, or in the text layer when the table has none.
func ResolvePeriod(tableRows [][]string, pageTexts []string) timesheet.Period {
	for _, row := range tableRows {
		for _, cell := range row {
			if p, ok := firstPeriod(cell); ok {
				return p
			}
		}
	}
	for _, text := range pageTexts {
		if p, ok := firstPeriod(text); ok {
			return p
		}
	}
	return timesheet.Period{}
}

func firstPeriod(s string) (timesheet.Period, bool) {
	for _, m := range periodDate.FindAllString(s, -1) {
		if d, ok := timesheet.ParseDate(m); ok {
			return timesheet.PeriodOf(d), true
		}
	}
	return timesheet.Period{}, false
}
