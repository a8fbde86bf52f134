package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names of the workbook.
const (
	SheetSummary  = "Resumo"
	SheetDetails  = "Detalhes"
	SheetFailures = "Falhas"
)

// XLSXWriter writes a report as a single workbook with one sheet per table.
type XLSXWriter struct {
	logger *zap.Logger
}

// NewXLSXWriter creates the writer.
func NewXLSXWriter(logger *zap.Logger) *XLSXWriter {
	return &XLSXWriter{logger: logger}
}

// Write saves r to outputPath.
func (w *XLSXWriter) Write(outputPath string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetDetails, SheetFailures} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	summary := [][]any{toAny(SummaryHeader)}
	for _, s := range r.Summaries {
		summary = append(summary, []any{s.Employee, s.Period, s.Expected, s.Worked, s.Balance, s.Signed})
	}
	details := [][]any{toAny(DetailHeader)}
	for _, d := range r.Details {
		details = append(details, []any{d.Employee, d.Period, d.Date, d.DayType, d.Expected, d.Worked, d.DurationCode})
	}
	failures := [][]any{toAny(FailureHeader)}
	for _, fr := range r.FailureRows() {
		failures = append(failures, []any{fr.Path, fr.Reason, fr.Detail})
	}

	for sheet, rows := range map[string][][]any{SheetSummary: summary, SheetDetails: details, SheetFailures: failures} {
		if err := w.writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	w.logger.Info("Excel report written",
		zap.String("output_path", outputPath),
		zap.Int("summaries", len(r.Summaries)),
		zap.Int("details", len(r.Details)))
	return nil
}

func (w *XLSXWriter) writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
