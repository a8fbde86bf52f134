// Package report assembles reconciled timesheets into summary, detail and
// failure tables and writes them out.
package report

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

// SummaryRecord is one row of the summary table.
type SummaryRecord struct {
	Employee        string
	Period          string
	Expected        string
	Worked          string
	Balance         string
	ExpectedMinutes int
	WorkedMinutes   int
	BalanceMinutes  int
	Signed          bool
	SourcePath      string
	Days            []DetailRecord
}

// DetailRecord is one audited day.
type DetailRecord struct {
	Employee        string
	Period          string
	Date            string
	DayType         string
	DurationCode    string
	Expected        string
	Worked          string
	ExpectedMinutes int
	WorkedMinutes   int
	Note            string
}

// Report is the assembled output of a run.
type Report struct {
	RunID     string
	Summaries []SummaryRecord
	Details   []DetailRecord
	Failures  []timesheet.DocumentFailure
}

// Assembler filters timesheets by allowlist and flattens them into records.
type Assembler struct {
	allowlist *allowlist.Allowlist
	logger    *zap.Logger
}

// NewAssembler creates an assembler sharing the run allowlist.
func NewAssembler(list *allowlist.Allowlist, logger *zap.Logger) *Assembler {
	return &Assembler{allowlist: list, logger: logger}
}

// Assemble builds the report. Timesheets whose employee is not on the
// allowlist move to the failures.
func (a *Assembler) Assemble(runID string, sheets []*timesheet.MonthlyTimesheet, failures []timesheet.DocumentFailure) Report {
	r := Report{RunID: runID, Failures: append([]timesheet.DocumentFailure(nil), failures...)}
	for _, ts := range sheets {
		if ts == nil {
			continue
		}
		if _, ok := a.allowlist.Match(ts.EmployeeName); !ok || ts.EmployeeName == timesheet.Unresolved {
			a.logger.Warn("Dropping timesheet for employee not on allowlist",
				zap.String("path", ts.SourcePath),
				zap.String("employee", ts.EmployeeName))
			r.Failures = append(r.Failures, timesheet.NewDocumentFailure(ts.SourcePath,
				fmt.Errorf("%w: %s", timesheet.ErrAllowlistMismatch, ts.EmployeeName)))
			continue
		}
		s := Summarize(ts)
		r.Summaries = append(r.Summaries, s)
		r.Details = append(r.Details, s.Days...)
	}
	return r
}

// Summarize converts one timesheet into its summary and detail records.
func Summarize(ts *timesheet.MonthlyTimesheet) SummaryRecord {
	s := SummaryRecord{
		Employee:        ts.EmployeeName,
		Period:          ts.Period.String(),
		Expected:        ts.Expected(),
		Worked:          ts.Worked(),
		Balance:         ts.Balance(),
		ExpectedMinutes: ts.TotalExpectedMinutes,
		WorkedMinutes:   ts.TotalWorkedMinutes,
		BalanceMinutes:  ts.BalanceMinutes,
		Signed:          ts.SignatureVerified,
		SourcePath:      ts.SourcePath,
	}
	for _, d := range ts.Records {
		s.Days = append(s.Days, DetailRecord{
			Employee:        ts.EmployeeName,
			Period:          s.Period,
			Date:            d.DateString(),
			DayType:         d.Classification.String(),
			DurationCode:    d.ExpectedDurationCode,
			Expected:        timesheet.FormatClock(d.ExpectedMinutes),
			Worked:          timesheet.FormatClock(d.WorkedMinutes),
			ExpectedMinutes: d.ExpectedMinutes,
			WorkedMinutes:   d.WorkedMinutes,
			Note:            d.Note,
		})
	}
	return s
}
