package timesheet

import (
	"strings"
	"time"
	"unicode"
)

// Expected-duration codes printed in the C.PRE column.
const (
	DurationCode6h      = "06:00:00"
	DurationCode8h      = "08:00:00"
	DefaultDurationCode = DurationCode8h
)

// DateLayout is the layout of dates printed on time cards.
const DateLayout = "02/01/2006"

// Classification is the outcome of the hour policy for one day.
type Classification int

const (
	Unclassified Classification = iota
	Normal
	Special
	IncompleteData
	Invalid
)

// String returns the label used in reports.
func (c Classification) String() string {
	switch c {
	case Normal:
		return "Normal"
	case Special:
		return "Special"
	case IncompleteData:
		return "IncompleteData"
	case Invalid:
		return "Invalid"
	default:
		return "Unclassified"
	}
}

// Punch is one of the four clock fields of a day. It holds either a
// time-of-day, a textual marker such as FERIADO, or nothing.
type Punch struct {
	Raw     string
	Minutes int
	IsTime  bool
}

// NewPunch builds a punch from the raw field text.
func NewPunch(raw string) Punch {
	raw = strings.TrimSpace(raw)
	p := Punch{Raw: raw}
	if m, ok := ParseTimeOfDay(raw); ok {
		p.Minutes = m
		p.IsTime = true
	}
	return p
}

// IsEmpty reports whether the field carries nothing.
func (p Punch) IsEmpty() bool { return p.Raw == "" }

// HasText reports whether the field carries alphabetic characters.
func (p Punch) HasText() bool {
	for _, r := range p.Raw {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsTextOnly reports whether the field is made of letters and spaces only.
func (p Punch) IsTextOnly() bool {
	for _, r := range p.Raw {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Present reports whether the punch holds a usable clock time. A 00:00 value
// is how the HR system prints a missing punch, so it does not count.
func (p Punch) Present() bool { return p.IsTime && p.Minutes > 0 }

// DailyAttendanceRecord is one calendar date of a time card.
type DailyAttendanceRecord struct {
	Date                 time.Time
	Entry1               Punch
	Exit1                Punch
	Entry2               Punch
	Exit2                Punch
	ExpectedDurationCode string
	ExpectedMinutes      int

	// Set once by the hour policy.
	Classification Classification
	WorkedMinutes  int
	Note           string
}

// NewDailyAttendanceRecord creates an unclassified record. An expected
// duration code other than 06:00:00 or 08:00:00 falls back to 08:00:00.
func NewDailyAttendanceRecord(date time.Time, entry1, exit1, entry2, exit2 Punch, code string) DailyAttendanceRecord {
	code = NormalizeDurationCode(code)
	expected, _ := ParseClock(code)
	return DailyAttendanceRecord{
		Date:                 date,
		Entry1:               entry1,
		Exit1:                exit1,
		Entry2:               entry2,
		Exit2:                exit2,
		ExpectedDurationCode: code,
		ExpectedMinutes:      expected,
	}
}

// Punches returns the four fields in document order.
func (r DailyAttendanceRecord) Punches() [4]Punch {
	return [4]Punch{r.Entry1, r.Exit1, r.Entry2, r.Exit2}
}

// DateString formats the record date as DD/MM/YYYY.
func (r DailyAttendanceRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// NormalizeDurationCode keeps the two recognised codes and defaults the rest.
func NormalizeDurationCode(code string) string {
	switch strings.TrimSpace(code) {
	case DurationCode6h:
		return DurationCode6h
	case DurationCode8h:
		return DurationCode8h
	default:
		return DefaultDurationCode
	}
}

// ParseDate parses a DD/MM/YYYY or DD/MM/YY date. Two-digit years are 20xx.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("02/01/06", s); err == nil {
		return time.Date(2000+t.Year()%100, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
