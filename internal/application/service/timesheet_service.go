// Package service holds the use cases shared by the command line and the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/aggregate"
	"github.com/garyjia/timecard-reconciler/internal/allowlist"
	"github.com/garyjia/timecard-reconciler/internal/application/port"
	"github.com/garyjia/timecard-reconciler/internal/entries"
	"github.com/garyjia/timecard-reconciler/internal/header"
	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/internal/pipeline"
	"github.com/garyjia/timecard-reconciler/internal/report"
	"github.com/garyjia/timecard-reconciler/pkg/utils"
)

// ErrNoDocuments is returned when a run is requested without input files.
var ErrNoDocuments = errors.New("no documents to process")

// ErrInvalidInput marks rejected file or employee names.
var ErrInvalidInput = errors.New("invalid input")

// ErrPersistenceDisabled is returned by store operations when no database
// is configured.
var ErrPersistenceDisabled = errors.New("persistence is disabled")

// AllowlistProvider returns the allowlist for a new run. Database-backed
// providers reload on every call so edits apply to the next run.
type AllowlistProvider func(ctx context.Context) (*allowlist.Allowlist, error)

// StaticAllowlist always returns list.
func StaticAllowlist(list *allowlist.Allowlist) AllowlistProvider {
	return func(context.Context) (*allowlist.Allowlist, error) { return list, nil }
}

// RepositoryAllowlist loads the active employees on every call.
func RepositoryAllowlist(repo port.EmployeeRepository) AllowlistProvider {
	return func(ctx context.Context) (*allowlist.Allowlist, error) {
		return allowlist.Load(ctx, repo)
	}
}

// PipelineDeps are the document-level collaborators shared by every run.
type PipelineDeps struct {
	Extractor      pipeline.Extractor
	OCR            pipeline.Recognizer // nil disables the OCR fallback
	Verifier       pipeline.SignatureVerifier
	Processing     pipeline.Config
	Workers        int
	CeilingMinutes int
}

// ProcessOptions selects the outputs of a run.
type ProcessOptions struct {
	// CSVPath is the summary file; detail and failure files are written next
	// to it. Empty skips CSV output.
	CSVPath string
	// XLSXPath writes a workbook when set.
	XLSXPath string
	// Persist stores the run in the database.
	Persist bool
}

// ProcessResult is the outcome of a run.
type ProcessResult struct {
	Report    report.Report
	StartedAt time.Time
	Elapsed   time.Duration
	Documents int
	CSV       *report.Paths
	XLSXPath  string
	Persisted bool
}

// Upload is one uploaded file.
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// TimesheetService runs batches and serves stored results.
type TimesheetService interface {
	Process(ctx context.Context, paths []string, opts ProcessOptions) (*ProcessResult, error)
	ProcessUploads(ctx context.Context, uploads []Upload, opts ProcessOptions) (*ProcessResult, error)
	List(ctx context.Context, limit, offset int, withDays bool) ([]models.Summary, error)
	Stats(ctx context.Context) (models.Stats, error)
	Clear(ctx context.Context) (int64, error)
}

type timesheetServiceImpl struct {
	deps          PipelineDeps
	allowlist     AllowlistProvider
	repo          port.TimesheetRepository
	fileStorage   port.FileStorage
	folderManager port.FolderManager
	maxUpload     int64
	logger        *zap.Logger
}

// TimesheetServiceDeps groups the constructor arguments.
type TimesheetServiceDeps struct {
	Pipeline      PipelineDeps
	Allowlist     AllowlistProvider
	Repo          port.TimesheetRepository // nil disables persistence
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
	MaxUploadSize int64
	Logger        *zap.Logger
}

// NewTimesheetService creates a new TimesheetService
func NewTimesheetService(d TimesheetServiceDeps) TimesheetService {
	if d.Allowlist == nil {
		d.Allowlist = StaticAllowlist(nil)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &timesheetServiceImpl{
		deps:          d.Pipeline,
		allowlist:     d.Allowlist,
		repo:          d.Repo,
		fileStorage:   d.FileStorage,
		folderManager: d.FolderManager,
		maxUpload:     d.MaxUploadSize,
		logger:        d.Logger,
	}
}

// Process reconciles the documents at paths and writes the requested
// outputs. Document failures are part of the report; an error is returned
// only when the run itself cannot proceed.
func (s *timesheetServiceImpl) Process(ctx context.Context, paths []string, opts ProcessOptions) (*ProcessResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoDocuments
	}
	if opts.Persist && s.repo == nil {
		return nil, ErrPersistenceDisabled
	}

	list, err := s.allowlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load allowlist: %w", err)
	}
	if list.Len() == 0 {
		s.logger.Warn("Allowlist is empty, accepting any plausible name")
	}

	batch := s.newBatch(list)
	res, err := batch.Run(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	rep := report.NewAssembler(list, s.logger).Assemble(res.RunID, res.Timesheets, res.Failures)
	out := &ProcessResult{
		Report:    rep,
		StartedAt: res.StartedAt,
		Elapsed:   res.FinishedAt.Sub(res.StartedAt),
		Documents: res.Documents,
	}

	if opts.CSVPath != "" {
		p, err := report.WriteCSVFiles(opts.CSVPath, rep)
		if err != nil {
			return out, fmt.Errorf("failed to write CSV report: %w", err)
		}
		out.CSV = &p
	}
	if opts.XLSXPath != "" {
		if err := report.NewXLSXWriter(s.logger).Write(opts.XLSXPath, rep); err != nil {
			return out, fmt.Errorf("failed to write XLSX report: %w", err)
		}
		out.XLSXPath = opts.XLSXPath
	}
	if opts.Persist {
		if err := s.persist(ctx, res, rep); err != nil {
			return out, err
		}
		out.Persisted = true
	}

	s.logger.Info("Run complete",
		zap.String("run_id", rep.RunID),
		zap.Int("documents", res.Documents),
		zap.Int("summaries", len(rep.Summaries)),
		zap.Int("failures", len(rep.Failures)),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

// ProcessUploads stores uploads in a temporary run folder, processes them
// and removes the folder.
func (s *timesheetServiceImpl) ProcessUploads(ctx context.Context, uploads []Upload, opts ProcessOptions) (*ProcessResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoDocuments
	}
	if s.fileStorage == nil || s.folderManager == nil {
		return nil, fmt.Errorf("upload storage is not configured")
	}

	folderID := uuid.NewString()
	folder, err := s.folderManager.CreateRunFolder(folderID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.folderManager.DeleteRunFolder(folderID); err != nil {
			s.logger.Warn("Failed to remove upload folder", zap.String("folder", folder), zap.Error(err))
		}
	}()

	paths := make([]string, 0, len(uploads))
	for i, u := range uploads {
		if err := utils.ValidateUploadName(u.Name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		// Prefix keeps identical names from overwriting each other.
		path := filepath.Join(folder, fmt.Sprintf("%03d_%s", i+1, utils.SafeFileName(u.Name)))
		if err := s.saveUpload(path, u); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", u.Name, err)
		}
		paths = append(paths, path)
	}

	res, err := s.Process(ctx, paths, opts)
	if res != nil {
		restoreNames(&res.Report, paths, uploads)
	}
	return res, err
}

func (s *timesheetServiceImpl) saveUpload(path string, u Upload) error {
	rc, err := u.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = s.fileStorage.Save(path, rc, s.maxUpload)
	return err
}

// restoreNames replaces temporary paths with the uploaded file names.
func restoreNames(r *report.Report, paths []string, uploads []Upload) {
	names := make(map[string]string, len(paths))
	for i, p := range paths {
		names[p] = uploads[i].Name
	}
	for i := range r.Summaries {
		if n, ok := names[r.Summaries[i].SourcePath]; ok {
			r.Summaries[i].SourcePath = n
		}
	}
	for i := range r.Failures {
		if n, ok := names[r.Failures[i].Path]; ok {
			r.Failures[i].Path = n
		}
	}
}

func (s *timesheetServiceImpl) newBatch(list *allowlist.Allowlist) *pipeline.Batch {
	processor := pipeline.NewProcessor(
		s.deps.Extractor,
		s.deps.OCR,
		header.NewResolver(list, s.logger),
		entries.NewParser(s.logger),
		aggregate.NewAggregator(s.deps.CeilingMinutes, s.logger),
		s.deps.Verifier,
		s.deps.Processing,
		s.logger,
	)
	return pipeline.NewBatch(processor, s.deps.Workers, s.logger)
}

func (s *timesheetServiceImpl) persist(ctx context.Context, res *pipeline.BatchResult, rep report.Report) error {
	run := models.Run{
		ID:         rep.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Documents:  res.Documents,
		Succeeded:  len(rep.Summaries),
		Failed:     len(rep.Failures),
	}
	if err := s.repo.SaveRun(ctx, run, ToSummaries(rep), ToFailures(rep)); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	return nil
}

// ToSummaries converts report records into persisted summaries.
func ToSummaries(rep report.Report) []models.Summary {
	out := make([]models.Summary, 0, len(rep.Summaries))
	for _, s := range rep.Summaries {
		m := models.Summary{
			RunID:           rep.RunID,
			Employee:        s.Employee,
			Period:          s.Period,
			Expected:        s.Expected,
			Worked:          s.Worked,
			Balance:         s.Balance,
			ExpectedMinutes: s.ExpectedMinutes,
			WorkedMinutes:   s.WorkedMinutes,
			BalanceMinutes:  s.BalanceMinutes,
			Signed:          s.Signed,
			SourceFile:      filepath.Base(s.SourcePath),
		}
		for _, d := range s.Days {
			m.Days = append(m.Days, models.Day{
				Date:            d.Date,
				DayType:         d.DayType,
				DurationCode:    d.DurationCode,
				ExpectedMinutes: d.ExpectedMinutes,
				WorkedMinutes:   d.WorkedMinutes,
				Note:            d.Note,
			})
		}
		out = append(out, m)
	}
	return out
}

// ToFailures converts report failures into persisted failures.
func ToFailures(rep report.Report) []models.Failure {
	out := make([]models.Failure, 0, len(rep.Failures))
	for _, f := range rep.FailureRows() {
		out = append(out, models.Failure{Path: filepath.Base(f.Path), Reason: f.Reason, Detail: f.Detail})
	}
	return out
}

// List returns stored summaries, newest first.
func (s *timesheetServiceImpl) List(ctx context.Context, limit, offset int, withDays bool) ([]models.Summary, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.ListSummaries(ctx, limit, offset, withDays)
}

// Stats aggregates stored summaries.
func (s *timesheetServiceImpl) Stats(ctx context.Context) (models.Stats, error) {
	if s.repo == nil {
		return models.Stats{}, ErrPersistenceDisabled
	}
	return s.repo.Stats(ctx)
}

// Clear deletes every stored run.
func (s *timesheetServiceImpl) Clear(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, ErrPersistenceDisabled
	}
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Stored timesheets cleared", zap.Int64("deleted", n))
	return n, nil
}
