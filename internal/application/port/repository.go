package port

import (
	"context"

	"github.com/garyjia/timecard-reconciler/internal/models"
)

// TimesheetRepository defines persistence operations for reconciled runs
type TimesheetRepository interface {
	SaveRun(ctx context.Context, run models.Run, summaries []models.Summary, failures []models.Failure) error
	ListSummaries(ctx context.Context, limit, offset int, withDays bool) ([]models.Summary, error)
	Stats(ctx context.Context) (models.Stats, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// EmployeeRepository defines persistence operations for the employee allowlist
type EmployeeRepository interface {
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
	ActiveEmployeeNames(ctx context.Context) ([]string, error)
	UpsertEmployee(ctx context.Context, name string) (*models.Employee, error)
	DeactivateEmployee(ctx context.Context, name string) (bool, error)
	ReplaceEmployees(ctx context.Context, names []string) (int, error)
}
