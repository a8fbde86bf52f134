package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/domain/timesheet"
	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/pkg/database"
)

// TimesheetRepository stores reconciled runs.
type TimesheetRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *database.DB, logger *zap.Logger) *TimesheetRepository {
	return &TimesheetRepository{db: db, logger: logger}
}

// SaveRun writes a run with its summaries, days and failures in one
// transaction.
func (r *TimesheetRepository) SaveRun(ctx context.Context, run models.Run, summaries []models.Summary, failures []models.Failure) error {
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO timesheet_runs (id, started_at, finished_at, documents, succeeded, failed)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.StartedAt, run.FinishedAt, run.Documents, run.Succeeded, run.Failed); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for _, s := range summaries {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO timesheet_summaries (
					run_id, colaborador, periodo, previsto, realizado, saldo,
					previsto_minutos, realizado_minutos, saldo_minutos,
					assinatura, arquivo_origem, processed_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, s.Employee, s.Period, s.Expected, s.Worked, s.Balance,
				s.ExpectedMinutes, s.WorkedMinutes, s.BalanceMinutes,
				s.Signed, s.SourceFile, s.ProcessedAt)
			if err != nil {
				return fmt.Errorf("failed to insert summary for %s: %w", s.Employee, err)
			}
			summaryID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			for _, d := range s.Days {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO timesheet_days (
						summary_id, data, tipo_dia, codigo_previsto,
						previsto_minutos, realizado_minutos, observacao
					) VALUES (?, ?, ?, ?, ?, ?, ?)`,
					summaryID, d.Date, d.DayType, d.DurationCode,
					d.ExpectedMinutes, d.WorkedMinutes, d.Note); err != nil {
					return fmt.Errorf("failed to insert day %s: %w", d.Date, err)
				}
			}
		}

		for _, f := range failures {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO timesheet_failures (run_id, arquivo_origem, motivo, detalhe)
				VALUES (?, ?, ?, ?)`,
				run.ID, f.Path, f.Reason, f.Detail); err != nil {
				return fmt.Errorf("failed to insert failure for %s: %w", f.Path, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save run", zap.String("run_id", run.ID), zap.Error(err))
		return err
	}

	r.logger.Info("Run saved",
		zap.String("run_id", run.ID),
		zap.Int("summaries", len(summaries)),
		zap.Int("failures", len(failures)))
	return nil
}

// ListSummaries returns stored summaries, newest first. Days are loaded when
// withDays is set.
func (r *TimesheetRepository) ListSummaries(ctx context.Context, limit, offset int, withDays bool) ([]models.Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, colaborador, periodo, previsto, realizado, saldo,
			previsto_minutos, realizado_minutos, saldo_minutos,
			assinatura, arquivo_origem, processed_at
		FROM timesheet_summaries
		ORDER BY processed_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []models.Summary
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(
			&s.ID, &s.RunID, &s.Employee, &s.Period, &s.Expected, &s.Worked, &s.Balance,
			&s.ExpectedMinutes, &s.WorkedMinutes, &s.BalanceMinutes,
			&s.Signed, &s.SourceFile, &s.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}

	if withDays {
		for i := range summaries {
			days, err := r.days(ctx, summaries[i].ID)
			if err != nil {
				return nil, err
			}
			summaries[i].Days = days
		}
	}
	return summaries, nil
}

func (r *TimesheetRepository) days(ctx context.Context, summaryID int64) ([]models.Day, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data, tipo_dia, codigo_previsto, previsto_minutos, realizado_minutos, observacao
		FROM timesheet_days
		WHERE summary_id = ?
		ORDER BY id`, summaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query days: %w", err)
	}
	defer rows.Close()

	var days []models.Day
	for rows.Next() {
		var d models.Day
		if err := rows.Scan(&d.Date, &d.DayType, &d.DurationCode, &d.ExpectedMinutes, &d.WorkedMinutes, &d.Note); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Stats counts summaries and sums their balance.
func (r *TimesheetRepository) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN assinatura THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(saldo_minutos), 0)
		FROM timesheet_summaries`).Scan(&st.Total, &st.Signed, &st.TotalBalanceMinutes)
	if err != nil {
		return st, fmt.Errorf("failed to query stats: %w", err)
	}
	st.Unsigned = st.Total - st.Signed
	st.TotalBalance = timesheet.FormatBalance(st.TotalBalanceMinutes)
	return st, nil
}

// DeleteAll removes every stored run and returns the number of summaries
// deleted.
func (r *TimesheetRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM timesheet_summaries")
		if err != nil {
			return fmt.Errorf("failed to delete summaries: %w", err)
		}
		deleted, _ = res.RowsAffected()
		for _, table := range []string{"timesheet_days", "timesheet_failures", "timesheet_runs"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("Stored timesheets deleted", zap.Int64("summaries", deleted))
	return deleted, nil
}
