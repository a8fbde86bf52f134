// Package entries turns table rows or page text into daily attendance
// records.
package entries

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
)

var (
	datePattern     = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	timePattern     = regexp.MustCompile(`\d{1,2}:\d{2}`)
	codePattern     = regexp.MustCompile(`0[68]:00:00`)
	codeCellPattern = regexp.MustCompile(`^0[68]:00:00`)
	spacePattern    = regexp.MustCompile(`\s+`)
)

// Strategy extracts records from one layer. It returns nil when the layer
// carries nothing it can use.
type Strategy struct {
	Name  string
	Parse func(tableRows [][]string, pageTexts []string) []timesheet.DailyAttendanceRecord
}

// DefaultStrategies returns the table strategy followed by the text strategy.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "table", Parse: func(rows [][]string, _ []string) []timesheet.DailyAttendanceRecord { return FromTable(rows) }},
		{Name: "text", Parse: func(_ [][]string, texts []string) []timesheet.DailyAttendanceRecord { return FromText(texts) }},
	}
}

// Result is the parser output.
type Result struct {
	Records []timesheet.DailyAttendanceRecord
	// Duplicates lists dates parsed more than once. The last parse is kept.
	Duplicates []time.Time
	// Strategy names the strategy that produced the records.
	Strategy string
}

// Parser runs the strategies in order; the first one yielding records wins.
type Parser struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewParser creates a parser with the default strategies.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{strategies: DefaultStrategies(), logger: logger}
}

// Parse extracts the records of one document, ordered by date.
func (p *Parser) Parse(tableRows [][]string, pageTexts []string) Result {
	for _, s := range p.strategies {
		records := s.Parse(tableRows, pageTexts)
		if len(records) == 0 {
			continue
		}
		unique, dups := dedupe(records)
		for _, d := range dups {
			p.logger.Warn("Duplicate date in time card, keeping last row",
				zap.String("date", d.Format(timesheet.DateLayout)),
				zap.String("strategy", s.Name))
		}
		p.logger.Debug("Parsed daily entries",
			zap.String("strategy", s.Name),
			zap.Int("records", len(unique)))
		return Result{Records: unique, Duplicates: dups, Strategy: s.Name}
	}
	return Result{}
}

// dedupe keeps the last record for each date and sorts by date.
func dedupe(records []timesheet.DailyAttendanceRecord) ([]timesheet.DailyAttendanceRecord, []time.Time) {
	byDate := make(map[time.Time]int, len(records))
	var out []timesheet.DailyAttendanceRecord
	var dups []time.Time
	for _, r := range records {
		if i, ok := byDate[r.Date]; ok {
			out[i] = r
			dups = append(dups, r.Date)
			continue
		}
		byDate[r.Date] = len(out)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, dups
}

// FromTable reads rows laid out either as date, first pair, second pair,
// C.PRE or with one cell per punch. One-cell-per-punch rows map cells to
// punches by position, so they must be column-aligned; a flattened row
// without exactly four times cannot be mapped and is dropped.
func FromTable(rows [][]string) []timesheet.DailyAttendanceRecord {
	var records []timesheet.DailyAttendanceRecord
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		date, ok := timesheet.ParseDate(datePattern.FindString(row[0]))
		if !ok {
			continue
		}

		var punches [4]timesheet.Punch
		code := row[3]
		idx := codeCell(row)
		switch {
		case idx == 5 && singlePunchCells(row[1:5]), idx < 0 && len(row) >= 6 && singlePunchCells(row[1:5]):
			for i := range punches {
				punches[i] = punchFromCell(row[1+i])
			}
			code = row[5]
		case idx > 3:
			code = row[idx]
			body := strings.Join(row[1:idx], " ")
			times := timePattern.FindAllString(body, -1)
			switch {
			case len(times) == 4:
				for i, t := range times {
					punches[i] = timesheet.NewPunch(t)
				}
			case len(times) == 0 && markerWords(body) != "":
				punches[0] = timesheet.NewPunch(markerWords(body))
			default:
				continue
			}
		default:
			punches[0], punches[1] = pairFromCell(row[1])
			punches[2], punches[3] = pairFromCell(row[2])
		}

		records = append(records, timesheet.NewDailyAttendanceRecord(
			date, punches[0], punches[1], punches[2], punches[3],
			codeCellPattern.FindString(strings.TrimSpace(code))))
	}
	return records
}

// singlePunchCells reports whether no cell holds more than one time and at
// least one holds a time or a marker.
func singlePunchCells(cells []string) bool {
	filled := false
	for _, c := range cells {
		n := len(timePattern.FindAllString(c, -1))
		if n > 1 {
			return false
		}
		if n == 1 || markerWords(c) != "" {
			filled = true
		}
	}
	return filled
}

// punchFromCell reads one punch: the first time in the cell, else its marker
// words.
func punchFromCell(cell string) timesheet.Punch {
	if t := timePattern.FindString(cell); t != "" {
		return timesheet.NewPunch(t)
	}
	return timesheet.NewPunch(markerWords(cell))
}

// codeCell returns the index of the first cell after the date holding a
// duration code, or -1.
func codeCell(row []string) int {
	for i := 1; i < len(row); i++ {
		if codeCellPattern.MatchString(strings.TrimSpace(row[i])) {
			return i
		}
	}
	return -1
}

// pairFromCell reads up to two times from a cell. A cell with no times but
// with letters is kept as a marker in the first punch.
func pairFromCell(cell string) (timesheet.Punch, timesheet.Punch) {
	times := timePattern.FindAllString(cell, 2)
	switch len(times) {
	case 2:
		return timesheet.NewPunch(times[0]), timesheet.NewPunch(times[1])
	case 1:
		return timesheet.NewPunch(times[0]), timesheet.Punch{}
	}
	if marker := markerWords(cell); marker != "" {
		return timesheet.NewPunch(marker), timesheet.Punch{}
	}
	return timesheet.Punch{}, timesheet.Punch{}
}

const dateLen = len("DD/MM/YYYY")

var (
	strictRow   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}[^0-9]*?(\d{1,2}:\d{2})[^0-9]*?(\d{1,2}:\d{2})[^0-9]*?(\d{1,2}:\d{2})[^0-9]*?(\d{1,2}:\d{2})[^0-9]*?(0[68]:00:00)`)
	tolerantRow = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}.*?(\d{1,2}:\d{2}).*?(\d{1,2}:\d{2}).*?(\d{1,2}:\d{2}).*?(\d{1,2}:\d{2}).*?(0[68]:00:00)`)
)

// FromText scans the page text. The text is cut into segments, one per date
// occurrence, and each segment is matched against the row patterns. A
// segment without four times is accepted only as a marker day.
func FromText(pageTexts []string) []timesheet.DailyAttendanceRecord {
	text := spacePattern.ReplaceAllString(strings.Join(pageTexts, " "), " ")
	locs := datePattern.FindAllStringIndex(text, -1)

	var records []timesheet.DailyAttendanceRecord
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := text[loc[0]:end]
		date, ok := timesheet.ParseDate(text[loc[0]:loc[1]])
		if !ok {
			continue
		}
		if rec, ok := rowFromSegment(date, segment); ok {
			records = append(records, rec)
		}
	}
	return records
}

func rowFromSegment(date time.Time, segment string) (timesheet.DailyAttendanceRecord, bool) {
	for _, re := range []*regexp.Regexp{strictRow, tolerantRow} {
		if m := re.FindStringSubmatch(segment); m != nil {
			return timesheet.NewDailyAttendanceRecord(date,
				timesheet.NewPunch(m[1]), timesheet.NewPunch(m[2]),
				timesheet.NewPunch(m[3]), timesheet.NewPunch(m[4]), m[5]), true
		}
	}

	code := codePattern.FindStringIndex(segment)
	if code == nil {
		return timesheet.DailyAttendanceRecord{}, false
	}
	body := segment[dateLen:code[0]]
	if timePattern.MatchString(body) {
		return timesheet.DailyAttendanceRecord{}, false
	}
	marker := markerWords(body)
	if marker == "" {
		return timesheet.DailyAttendanceRecord{}, false
	}
	return timesheet.NewDailyAttendanceRecord(date,
		timesheet.NewPunch(marker), timesheet.Punch{}, timesheet.Punch{}, timesheet.Punch{},
		segment[code[0]:code[1]]), true
}

var weekdays = map[string]bool{
	"SEG": true, "TER": true, "QUA": true, "QUI": true, "SEX": true, "SAB": true, "SÁB": true, "DOM": true,
}

// markerWords returns the alphabetic words of s, minus weekday labels.
func markerWords(s string) string {
	var words []string
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, ".,;:-()")
		if len([]rune(w)) < 2 || !isLetters(w) || weekdays[strings.ToUpper(w)] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
