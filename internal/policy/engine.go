// Package policy classifies attendance days and computes worked minutes.
package policy

import (
	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

// Notes attached to classified records.
const (
	NoteSpecialMarker  = "special day with expected duration"
	NoteExpectedOnly   = "expected duration only"
	NoteNoExpected     = "no valid expected duration"
	NoteBothIncomplete = "both punch pairs incomplete"
	NoteStrayPunch     = "isolated punch"
	NoteReversedPair   = "exit before entry"
	NoteMorningOnly    = "afternoon pair missing"
	NoteAfternoonOnly  = "morning pair missing"
	NoteAllPunches     = ""
)

// Result is the outcome of the policy for one record.
type Result struct {
	Classification timesheet.Classification
	WorkedMinutes  int
	Note           string
}

// ClassifyAndCompute applies the hour policy to one record. It has no state
// and does not modify the record.
func ClassifyAndCompute(r timesheet.DailyAttendanceRecord) Result {
	punches := r.Punches()

	hasText := false
	allEmptyOrText := true
	for _, p := range punches {
		if p.HasText() {
			hasText = true
		}
		if !p.IsEmpty() && !p.IsTextOnly() {
			allEmptyOrText = false
		}
	}

	expected := r.ExpectedMinutes
	switch {
	case hasText && expected > 0:
		return Result{timesheet.Special, expected, NoteSpecialMarker}
	case allEmptyOrText && expected > 0:
		return Result{timesheet.Special, expected, NoteExpectedOnly}
	case hasText:
		return Result{timesheet.Invalid, 0, NoteNoExpected}
	}

	return computePunches(r)
}

func computePunches(r timesheet.DailyAttendanceRecord) Result {
	e1, x1 := r.Entry1.Present(), r.Exit1.Present()
	e2, x2 := r.Entry2.Present(), r.Exit2.Present()
	morning := e1 && x1
	afternoon := e2 && x2

	switch {
	case morning && afternoon:
		return normal(NoteAllPunches, pair{r.Entry1, r.Exit1}, pair{r.Entry2, r.Exit2})
	case afternoon:
		return normal(NoteAfternoonOnly, pair{r.Entry2, r.Exit2})
	case morning:
		return normal(NoteMorningOnly, pair{r.Entry1, r.Exit1})
	}

	if countPresent(e1, x1, e2, x2) == 1 {
		return Result{timesheet.Invalid, 0, NoteStrayPunch}
	}
	return Result{timesheet.IncompleteData, 0, NoteBothIncomplete}
}

type pair struct {
	entry, exit timesheet.Punch
}

// normal sums the pairs. A reversed pair contributes zero and is noted; the
// classification stays Normal.
func normal(note string, pairs ...pair) Result {
	worked := 0
	for _, p := range pairs {
		d := p.exit.Minutes - p.entry.Minutes
		if d < 0 {
			note = NoteReversedPair
			continue
		}
		worked += d
	}
	return Result{timesheet.Normal, worked, note}
}

func countPresent(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// Apply classifies every record in place and returns the slice.
func Apply(records []timesheet.DailyAttendanceRecord) []timesheet.DailyAttendanceRecord {
	for i := range records {
		res := ClassifyAndCompute(records[i])
		records[i].Classification = res.Classification
		records[i].WorkedMinutes = res.WorkedMinutes
		records[i].Note = res.Note
	}
	return records
}
