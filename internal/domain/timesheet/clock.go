package timesheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clockPattern     = regexp.MustCompile(`^([+-])?(\d+):(\d{2})(?::(\d{2}))?$`)
	timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// FormatClock renders a non-negative minute count as HH:MM. Hours are not
// wrapped at 24, so a month of work renders as e.g. "176:00".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = -minutes
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatBalance renders a signed minute count as +HH:MM or -HH:MM.
func FormatBalance(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
	}
	return sign + FormatClock(minutes)
}

// ParseClock parses HH:MM, HH:MM:SS or a signed balance back into minutes.
// Seconds are truncated.
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
	}
	mins, _ := strconv.Atoi(m[3])
	if mins >= 60 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	if m[4] != "" {
		if secs, _ := strconv.Atoi(m[4]); secs >= 60 {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	}
	total := hours*60 + mins
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

// ParseTimeOfDay parses an H:MM or HH:MM punch into minutes since midnight.
func ParseTimeOfDay(s string) (int, bool) {
	m := timeOfDayPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if h > 23 || mm > 59 {
		return 0, false
	}
	return h*60 + mm, true
}
