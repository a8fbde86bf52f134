package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/internal/textnorm"
	"github.com/garyjia/timecard-reconciler/pkg/database"
)

// ErrEmptyName is returned for blank employee names.
var ErrEmptyName = errors.New("employee name is empty")

// EmployeeRepository stores the allowlist. Names are unique by their folded
// form, so "João da Silva" and "JOAO DA SILVA" are one employee.
type EmployeeRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB, logger *zap.Logger) *EmployeeRepository {
	return &EmployeeRepository{db: db, logger: logger}
}

// ListEmployees returns employees ordered by name.
func (r *EmployeeRepository) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	query := `SELECT id, nome, ativo, created_at, updated_at FROM employees`
	if activeOnly {
		query += ` WHERE ativo = 1`
	}
	query += ` ORDER BY nome`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		var e models.Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ActiveEmployeeNames returns the names of active employees.
func (r *EmployeeRepository) ActiveEmployeeNames(ctx context.Context) ([]string, error) {
	employees, err := r.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(employees))
	for _, e := range employees {
		names = append(names, e.Name)
	}
	return names, nil
}

// UpsertEmployee adds name or reactivates it, adopting the new spelling.
func (r *EmployeeRepository) UpsertEmployee(ctx context.Context, name string) (*models.Employee, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := upsert(ctx, r.db, name); err != nil {
		r.logger.Error("Failed to upsert employee", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	var e models.Employee
	err := r.db.QueryRowContext(ctx, `
		SELECT id, nome, ativo, created_at, updated_at FROM employees WHERE nome_chave = ?`,
		textnorm.Fold(name)).Scan(&e.ID, &e.Name, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return &e, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, name string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (nome, nome_chave, ativo)
		VALUES (?, ?, 1)
		ON CONFLICT(nome_chave) DO UPDATE SET
			nome = excluded.nome,
			ativo = 1,
			updated_at = CURRENT_TIMESTAMP`,
		name, textnorm.Fold(name))
	if err != nil {
		return fmt.Errorf("failed to upsert employee: %w", err)
	}
	return nil
}

// DeactivateEmployee marks name inactive. It reports whether a row matched.
func (r *EmployeeRepository) DeactivateEmployee(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE employees SET ativo = 0, updated_at = CURRENT_TIMESTAMP
		WHERE nome_chave = ? AND ativo = 1`, textnorm.Fold(name))
	if err != nil {
		return false, fmt.Errorf("failed to deactivate employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// ReplaceEmployees makes names the exact active set. Other employees are
// deactivated, not deleted. Blank names are skipped.
func (r *EmployeeRepository) ReplaceEmployees(ctx context.Context, names []string) (int, error) {
	count := 0
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE employees SET ativo = 0, updated_at = CURRENT_TIMESTAMP`); err != nil {
			return fmt.Errorf("failed to reset employees: %w", err)
		}
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			n = strings.Join(strings.Fields(n), " ")
			key := textnorm.Fold(n)
			if n == "" || seen[key] {
				continue
			}
			seen[key] = true
			if err := upsert(ctx, tx, n); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("Employee list replaced", zap.Int("active", count))
	return count, nil
}
