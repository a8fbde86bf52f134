package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

func record(e1, x1, e2, x2, code string) timesheet.DailyAttendanceRecord {
	return timesheet.NewDailyAttendanceRecord(
		time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		timesheet.NewPunch(e1), timesheet.NewPunch(x1),
		timesheet.NewPunch(e2), timesheet.NewPunch(x2),
		code,
	)
}

func TestClassifyAndCompute(t *testing.T) {
	tests := []struct {
		name   string
		rec    timesheet.DailyAttendanceRecord
		class  timesheet.Classification
		worked int
	}{
		{"all four punches", record("08:00", "12:00", "13:00", "17:00", "08:00:00"), timesheet.Normal, 480},
		{"six hour day", record("07:00", "10:00", "10:15", "13:15", "06:00:00"), timesheet.Normal, 360},
		{"afternoon pair only", record("", "", "13:00", "17:30", "08:00:00"), timesheet.Normal, 270},
		{"afternoon pair with half morning", record("08:00", "", "13:00", "17:00", "08:00:00"), timesheet.Normal, 240},
		{"morning pair only", record("08:00", "12:00", "", "", "08:00:00"), timesheet.Normal, 240},
		{"morning pair with half afternoon", record("08:00", "12:00", "13:00", "", "08:00:00"), timesheet.Normal, 240},
		{"holiday marker", record("FERIADO", "", "", "", "08:00:00"), timesheet.Special, 480},
		{"marker next to punches", record("08:00", "ATESTADO", "", "", "06:00:00"), timesheet.Special, 360},
		{"all empty", record("", "", "", "", "08:00:00"), timesheet.Special, 480},
		{"both pairs incomplete", record("08:00", "", "13:00", "", "08:00:00"), timesheet.IncompleteData, 0},
		{"cross pair punches", record("08:00", "", "", "17:00", "08:00:00"), timesheet.IncompleteData, 0},
		{"single stray punch", record("", "", "", "17:00", "08:00:00"), timesheet.Invalid, 0},
		{"zero punches count as absent", record("00:00", "00:00", "13:00", "17:00", "08:00:00"), timesheet.Normal, 240},
		{"reversed afternoon pair", record("", "", "17:00", "13:00", "08:00:00"), timesheet.Normal, 0},
		{"reversed morning in full day", record("12:00", "08:00", "13:00", "17:00", "08:00:00"), timesheet.Normal, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ClassifyAndCompute(tt.rec)
			assert.Equal(t, tt.class, res.Classification)
			assert.Equal(t, tt.worked, res.WorkedMinutes)
		})
	}
}

func TestClassifyAndCompute_ReversedPairNoted(t *testing.T) {
	res := ClassifyAndCompute(record("12:00", "08:00", "13:00", "17:00", "08:00:00"))

	assert.Equal(t, timesheet.Normal, res.Classification)
	assert.Equal(t, 240, res.WorkedMinutes)
	assert.Equal(t, NoteReversedPair, res.Note)

	res = ClassifyAndCompute(record("08:00", "12:00", "13:00", "17:00", "08:00:00"))
	assert.Equal(t, NoteAllPunches, res.Note)
}

func TestClassifyAndCompute_TextWithoutExpected(t *testing.T) {
	rec := record("FOLGA", "", "", "", "08:00:00")
	rec.ExpectedMinutes = 0

	res := ClassifyAndCompute(rec)

	assert.Equal(t, timesheet.Invalid, res.Classification)
	assert.Equal(t, 0, res.WorkedMinutes)
	assert.Equal(t, NoteNoExpected, res.Note)
}

func TestClassifyAndCompute_EmptyWithoutExpected(t *testing.T) {
	rec := record("", "", "", "", "08:00:00")
	rec.ExpectedMinutes = 0

	res := ClassifyAndCompute(rec)

	assert.Equal(t, timesheet.IncompleteData, res.Classification)
}

func TestClassifyAndCompute_NeverNegative(t *testing.T) {
	times := []string{"", "00:00", "06:30", "12:00", "13:00", "23:59"}
	for _, e1 := range times {
		for _, x1 := range times {
			for _, e2 := range times {
				for _, x2 := range times {
					res := ClassifyAndCompute(record(e1, x1, e2, x2, "08:00:00"))
					assert.GreaterOrEqual(t, res.WorkedMinutes, 0)
					assert.NotEqual(t, timesheet.Unclassified, res.Classification)
				}
			}
		}
	}
}

func TestApply(t *testing.T) {
	records := []timesheet.DailyAttendanceRecord{
		record("08:00", "12:00", "13:00", "17:00", "08:00:00"),
		record("FERIADO", "", "", "", "08:00:00"),
	}

	out := Apply(records)

	assert.Equal(t, timesheet.Normal, out[0].Classification)
	assert.Equal(t, 480, out[0].WorkedMinutes)
	assert.Equal(t, timesheet.Special, out[1].Classification)
	assert.Equal(t, NoteSpecialMarker, out[1].Note)
}
