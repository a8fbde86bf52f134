package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/application/port"
	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/pkg/utils"
)

// EmployeeService manages the database-backed allowlist.
type EmployeeService interface {
	List(ctx context.Context, activeOnly bool) ([]models.Employee, error)
	Add(ctx context.Context, name string) (*models.Employee, error)
	Remove(ctx context.Context, name string) (bool, error)
	Replace(ctx context.Context, names []string) (int, error)
	ImportFile(ctx context.Context, path string) (int, error)
}

type employeeServiceImpl struct {
	repo   port.EmployeeRepository
	logger *zap.Logger
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(repo port.EmployeeRepository, logger *zap.Logger) EmployeeService {
	return &employeeServiceImpl{repo: repo, logger: logger}
}

func (s *employeeServiceImpl) List(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.ListEmployees(ctx, activeOnly)
}

// Add creates or reactivates an employee.
func (s *employeeServiceImpl) Add(ctx context.Context, name string) (*models.Employee, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	name = utils.SanitizeString(name)
	if err := utils.ValidateEmployeeName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e, err := s.repo.UpsertEmployee(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Employee saved", zap.String("name", e.Name))
	return e, nil
}

// Remove deactivates an employee; it reports whether one was found.
func (s *employeeServiceImpl) Remove(ctx context.Context, name string) (bool, error) {
	if s.repo == nil {
		return false, ErrPersistenceDisabled
	}
	return s.repo.DeactivateEmployee(ctx, utils.SanitizeString(name))
}

// Replace makes names the complete active allowlist.
func (s *employeeServiceImpl) Replace(ctx context.Context, names []string) (int, error) {
	if s.repo == nil {
		return 0, ErrPersistenceDisabled
	}
	clean := make([]string, 0, len(names))
	for _, n := range names {
		n = utils.SanitizeString(n)
		if n == "" {
			continue
		}
		if err := utils.ValidateEmployeeName(n); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		clean = append(clean, n)
	}
	count, err := s.repo.ReplaceEmployees(ctx, clean)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Allowlist replaced", zap.Int("active", count))
	return count, nil
}

// ImportFile replaces the allowlist with the names of an allowlist file.
func (s *employeeServiceImpl) ImportFile(ctx context.Context, path string) (int, error) {
	list, err := allowlist.LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return s.Replace(ctx, list.Names())
}
