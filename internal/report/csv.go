package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Column headers of the generated tables.
var (
	SummaryHeader = []string{"colaborador", "periodo", "previsto", "realizado", "saldo", "assinatura"}
	DetailHeader  = []string{"colaborador", "periodo", "data", "tipo_dia", "previsto", "realizado", "codigo_previsto"}
	FailureHeader = []string{"arquivo", "motivo", "detalhe"}
)

// WriteSummaryCSV writes the summary table.
func WriteSummaryCSV(w io.Writer, rows []SummaryRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Employee, r.Period, r.Expected, r.Worked, r.Balance, strconv.FormatBool(r.Signed)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDetailCSV writes one row per audited day.
func WriteDetailCSV(w io.Writer, rows []DetailRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DetailHeader); err != nil {
		return fmt.Errorf("failed to write detail header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Employee, r.Period, r.Date, r.DayType, r.Expected, r.Worked, r.DurationCode}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write detail row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFailureCSV writes the failed documents.
func WriteFailureCSV(w io.Writer, rows []DocumentFailureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FailureHeader); err != nil {
		return fmt.Errorf("failed to write failure header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.Path, r.Reason, r.Detail}); err != nil {
			return fmt.Errorf("failed to write failure row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// DocumentFailureRow is a failure flattened for output.
type DocumentFailureRow struct {
	Path   string
	Reason string
	Detail string
}

// FailureRows flattens the failures of a report.
func (r Report) FailureRows() []DocumentFailureRow {
	rows := make([]DocumentFailureRow, 0, len(r.Failures))
	for _, f := range r.Failures {
		rows = append(rows, DocumentFailureRow{Path: f.Path, Reason: f.Reason, Detail: f.Detail()})
	}
	return rows
}

// Paths of the files written for one output target.
type Paths struct {
	Summary  string
	Details  string
	Failures string
}

// OutputPaths derives the detail and failure file names from the summary
// path: out.csv gives out_detalhes.csv and out_falhas.csv.
func OutputPaths(summary string) Paths {
	ext := filepath.Ext(summary)
	base := strings.TrimSuffix(summary, ext)
	if ext == "" {
		ext = ".csv"
		summary += ext
	}
	return Paths{
		Summary:  summary,
		Details:  base + "_detalhes" + ext,
		Failures: base + "_falhas" + ext,
	}
}

// WriteCSVFiles writes the three tables next to each other.
func WriteCSVFiles(summaryPath string, r Report) (Paths, error) {
	paths := OutputPaths(summaryPath)
	if dir := filepath.Dir(paths.Summary); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := writeFile(paths.Summary, func(w io.Writer) error { return WriteSummaryCSV(w, r.Summaries) }); err != nil {
		return paths, err
	}
	if err := writeFile(paths.Details, func(w io.Writer) error { return WriteDetailCSV(w, r.Details) }); err != nil {
		return paths, err
	}
	if err := writeFile(paths.Failures, func(w io.Writer) error { return WriteFailureCSV(w, r.FailureRows()) }); err != nil {
		return paths, err
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	return nil
}
