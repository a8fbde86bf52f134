// Package aggregate sums classified days into monthly totals.
package aggregate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

// Aggregator computes monthly totals and enforces the sanity ceiling.
type Aggregator struct {
	ceiling int
	logger  *zap.Logger
}

// NewAggregator creates an aggregator. A non-positive ceiling selects
// timesheet.SanityCeilingMinutes.
func NewAggregator(ceilingMinutes int, logger *zap.Logger) *Aggregator {
	if ceilingMinutes <= 0 {
		ceilingMinutes = timesheet.SanityCeilingMinutes
	}
	return &Aggregator{ceiling: ceilingMinutes, logger: logger}
}

// Aggregate fills the totals of ts from its classified records. When either
// total exceeds the ceiling the totals are left zeroed and an error wrapping
// timesheet.ErrAggregation is returned.
func (a *Aggregator) Aggregate(ts *timesheet.MonthlyTimesheet) error {
	expected, worked := 0, 0
	for _, r := range ts.Records {
		expected += r.ExpectedMinutes
		worked += r.WorkedMinutes
	}

	if expected > a.ceiling || worked > a.ceiling {
		a.logger.Warn("Monthly totals exceed sanity ceiling",
			zap.String("path", ts.SourcePath),
			zap.String("employee", ts.EmployeeName),
			zap.Int("expected_minutes", expected),
			zap.Int("worked_minutes", worked),
			zap.Int("ceiling_minutes", a.ceiling))
		ts.TotalExpectedMinutes, ts.TotalWorkedMinutes, ts.BalanceMinutes = 0, 0, 0
		return fmt.Errorf("%w: expected %s, worked %s, ceiling %s", timesheet.ErrAggregation,
			timesheet.FormatClock(expected), timesheet.FormatClock(worked), timesheet.FormatClock(a.ceiling))
	}

	ts.TotalExpectedMinutes = expected
	ts.TotalWorkedMinutes = worked
	ts.BalanceMinutes = worked - expected
	return nil
}
