// Package container wires the application from configuration and manages
// the lifecycle of shared resources.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/application/port"
	"github.com/garyjia/timecard-reconciler/internal/application/service"
	"github.com/garyjia/timecard-reconciler/internal/config"
	"github.com/garyjia/timecard-reconciler/internal/ocr"
	"github.com/garyjia/timecard-reconciler/internal/pdf"
	"github.com/garyjia/timecard-reconciler/internal/pipeline"
	"github.com/garyjia/timecard-reconciler/internal/repository"
	"github.com/garyjia/timecard-reconciler/internal/signature"
	"github.com/garyjia/timecard-reconciler/internal/storage"
	"github.com/garyjia/timecard-reconciler/pkg/database"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Timesheet *repository.TimesheetRepository
	Employee  *repository.EmployeeRepository
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Timesheet service.TimesheetService
	Employee  service.EmployeeService
}

// ProvideDatabase opens the database and runs pending migrations.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*database.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	db, err := database.Open(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db, logger).Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// ProvideRepositories creates all repositories over db.
func ProvideRepositories(db *database.DB, logger *zap.Logger) *RepositoryBundle {
	return &RepositoryBundle{
		Timesheet: repository.NewTimesheetRepository(db, logger),
		Employee:  repository.NewEmployeeRepository(db, logger),
	}
}

// ProvideExtractor creates the PDF extractor.
func ProvideExtractor(cfg *config.OCRConfig, logger *zap.Logger) *pdf.Extractor {
	return pdf.NewExtractor(pdf.Config{RenderScale: cfg.RenderScale, MaxPages: cfg.MaxPages}, logger)
}

// ProvideRecognizer creates the OCR recognizer, or nil when OCR is disabled.
func ProvideRecognizer(cfg *config.OCRConfig, logger *zap.Logger) *ocr.Recognizer {
	if !cfg.Enabled {
		logger.Info("OCR disabled")
		return nil
	}
	engine := ocr.NewTesseractEngine(ocr.EngineConfig{
		Language:    cfg.Language,
		Whitelist:   cfg.Whitelist,
		PageSegMode: cfg.PageSegMode,
	})
	return ocr.NewRecognizer(engine, ocr.PreprocessConfig{Contrast: cfg.Contrast, MinWidth: cfg.MinWidth}, logger)
}

// ProvidePipeline assembles the per-document collaborators.
func ProvidePipeline(cfg *config.Config, logger *zap.Logger) service.PipelineDeps {
	extractor := ProvideExtractor(&cfg.OCR, logger)
	recognizer := ProvideRecognizer(&cfg.OCR, logger)

	deps := service.PipelineDeps{
		Extractor: extractor,
		Processing: pipeline.Config{
			DocumentTimeout: cfg.Pipeline.DocumentTimeout,
			MinTextChars:    cfg.OCR.MinTextChars,
		},
		Workers:        cfg.Pipeline.Workers,
		CeilingMinutes: cfg.Pipeline.SanityCeilingMinutes,
	}
	// Keep nil interfaces nil so the OCR tiers are skipped.
	if recognizer != nil {
		deps.OCR = recognizer
		deps.Verifier = signature.NewVerifier(recognizer, extractor, logger)
	} else {
		deps.Verifier = signature.NewVerifier(nil, extractor, logger)
	}
	return deps
}

// ProvideAllowlist selects the allowlist source.
func ProvideAllowlist(cfg *config.AllowlistConfig, repos *RepositoryBundle, logger *zap.Logger) (service.AllowlistProvider, error) {
	switch cfg.Source {
	case config.AllowlistSourceDatabase:
		if repos == nil {
			return nil, fmt.Errorf("allowlist source database requires database.enabled")
		}
		return service.RepositoryAllowlist(repos.Employee), nil
	case config.AllowlistSourceFile:
		if cfg.Path == "" {
			logger.Warn("No allowlist file configured, accepting any plausible name")
			return service.StaticAllowlist(nil), nil
		}
		list, err := allowlist.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("Allowlist loaded", zap.String("path", cfg.Path), zap.Int("names", list.Len()))
		return service.StaticAllowlist(list), nil
	default:
		return service.StaticAllowlist(nil), nil
	}
}

// ProvideStorage creates upload storage under the server upload directory.
func ProvideStorage(cfg *config.ServerConfig, logger *zap.Logger) *StorageBundle {
	return &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.UploadDir, logger),
		FolderManager: storage.NewFolderManager(cfg.UploadDir, logger),
	}
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Config    *config.Config
	Pipeline  service.PipelineDeps
	Allowlist service.AllowlistProvider
	Repos     *RepositoryBundle
	Storage   *StorageBundle
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) *ServiceBundle {
	tsDeps := service.TimesheetServiceDeps{
		Pipeline:      deps.Pipeline,
		Allowlist:     deps.Allowlist,
		MaxUploadSize: deps.Config.Server.MaxUploadSize,
		Logger:        deps.Logger,
	}
	if deps.Storage != nil {
		tsDeps.FileStorage = deps.Storage.FileStorage
		tsDeps.FolderManager = deps.Storage.FolderManager
	}
	var employees service.EmployeeService
	if deps.Repos != nil {
		tsDeps.Repo = deps.Repos.Timesheet
		employees = service.NewEmployeeService(deps.Repos.Employee, deps.Logger)
	} else {
		employees = service.NewEmployeeService(nil, deps.Logger)
	}
	return &ServiceBundle{
		Timesheet: service.NewTimesheetService(tsDeps),
		Employee:  employees,
	}
}
