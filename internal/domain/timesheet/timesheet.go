package timesheet

import (
	"fmt"
	"time"
)

// SanityCeilingMinutes is the default upper bound for monthly totals: 31 days
// of 24 hours. Totals above it come from an extraction defect.
const SanityCeilingMinutes = 31 * 24 * 60

// Unresolved is the employee name of a document whose header could not be
// matched.
const Unresolved = "Unresolved"

// Period is the month/year a time card reports on.
type Period struct {
	Month time.Month
	Year  int
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool { return p.Month == 0 || p.Year == 0 }

// String formats the period as MM/YYYY.
func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d/%04d", int(p.Month), p.Year)
}

// MonthlyTimesheet is the reconciled result for one employee and period.
type MonthlyTimesheet struct {
	SourcePath   string
	EmployeeName string
	Period       Period
	Records      []DailyAttendanceRecord

	// DuplicateDates lists dates seen more than once; the last parse won.
	DuplicateDates []time.Time

	TotalExpectedMinutes int
	TotalWorkedMinutes   int
	BalanceMinutes       int

	SignatureVerified bool
}

// Expected formats the expected total as HH:MM.
func (m *MonthlyTimesheet) Expected() string { return FormatClock(m.TotalExpectedMinutes) }

// Worked formats the worked total as HH:MM.
func (m *MonthlyTimesheet) Worked() string { return FormatClock(m.TotalWorkedMinutes) }

// Balance formats the signed balance as ±HH:MM.
func (m *MonthlyTimesheet) Balance() string { return FormatBalance(m.BalanceMinutes) }
