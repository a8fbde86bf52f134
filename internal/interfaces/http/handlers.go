package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/application/service"
	"github.com/garyjia/timecard-reconciler/internal/models"
	"github.com/garyjia/timecard-reconciler/internal/report"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	timesheets service.TimesheetService
	employees  service.EmployeeService
	health     HealthFunc
	persist    bool
	logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	timesheets service.TimesheetService,
	employees service.EmployeeService,
	health HealthFunc,
	persist bool,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		timesheets: timesheets,
		employees:  employees,
		health:     health,
		persist:    persist,
		logger:     logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	Components any    `json:"components,omitempty"`
}

// ProcessResponse is the result of POST /api/timesheets/process.
type ProcessResponse struct {
	RunID     string           `json:"run_id"`
	Documents int              `json:"documentos"`
	Elapsed   string           `json:"duracao"`
	Persisted bool             `json:"persistido"`
	Summaries []models.Summary `json:"resumo"`
	Failures  []models.Failure `json:"falhas"`
}

// EmployeeRequest is the body of PUT /api/employees.
type EmployeeRequest struct {
	Name string `json:"nome" binding:"required"`
}

// BulkEmployeesRequest is the body of POST /api/employees/bulk.
type BulkEmployeesRequest struct {
	Names []string `json:"nomes"`
}

// Version is reported by the health check.
var Version = "dev"

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
	}
	status := http.StatusOK
	if h.health != nil {
		ok, details := h.health(c.Request.Context())
		resp.Components = details
		if !ok {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, Response{Success: status == http.StatusOK, Data: resp})
}

// ProcessTimesheets handles POST /api/timesheets/process. Files are sent as
// multipart field "files". ?format=csv returns the summary table as CSV;
// ?persist=false skips storage.
func (h *Handlers) ProcessTimesheets(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		h.fail(c, http.StatusBadRequest, "no files uploaded", nil)
		return
	}

	persist := h.persist
	if v := c.Query("persist"); v != "" {
		if persist, err = strconv.ParseBool(v); err != nil {
			h.fail(c, http.StatusBadRequest, "invalid persist flag", err)
			return
		}
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, service.Upload{
			Name: fh.Filename,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	res, err := h.timesheets.ProcessUploads(c.Request.Context(), uploads, service.ProcessOptions{Persist: persist})
	if err != nil {
		h.serviceError(c, "failed to process time cards", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="resultado_pontos.csv"`)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := report.WriteSummaryCSV(c.Writer, res.Report.Summaries); err != nil {
			h.logger.Error("Failed to stream CSV", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ProcessResponse{
			RunID:     res.Report.RunID,
			Documents: res.Documents,
			Elapsed:   res.Elapsed.String(),
			Persisted: res.Persisted,
			Summaries: service.ToSummaries(res.Report),
			Failures:  service.ToFailures(res.Report),
		},
	})
}

// ListTimesheets handles GET /api/timesheets
func (h *Handlers) ListTimesheets(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	withDays := c.Query("days") == "true"

	list, err := h.timesheets.List(c.Request.Context(), limit, offset, withDays)
	if err != nil {
		h.serviceError(c, "failed to retrieve timesheets", err)
		return
	}
	if list == nil {
		list = []models.Summary{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// TimesheetStats handles GET /api/timesheets/stats
func (h *Handlers) TimesheetStats(c *gin.Context) {
	stats, err := h.timesheets.Stats(c.Request.Context())
	if err != nil {
		h.serviceError(c, "failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// ClearTimesheets handles DELETE /api/timesheets
func (h *Handlers) ClearTimesheets(c *gin.Context) {
	n, err := h.timesheets.Clear(c.Request.Context())
	if err != nil {
		h.serviceError(c, "failed to clear timesheets", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"removidos": n}})
}

// ListEmployees handles GET /api/employees; ?all=true includes inactive ones.
func (h *Handlers) ListEmployees(c *gin.Context) {
	list, err := h.employees.List(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		h.serviceError(c, "failed to list employees", err)
		return
	}
	if list == nil {
		list = []models.Employee{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// UpsertEmployee handles PUT /api/employees
func (h *Handlers) UpsertEmployee(c *gin.Context) {
	var req EmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	e, err := h.employees.Add(c.Request.Context(), req.Name)
	if err != nil {
		h.serviceError(c, "failed to save employee", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: e})
}

// DeleteEmployee handles DELETE /api/employees/:name
func (h *Handlers) DeleteEmployee(c *gin.Context) {
	found, err := h.employees.Remove(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.serviceError(c, "failed to remove employee", err)
		return
	}
	if !found {
		h.fail(c, http.StatusNotFound, "employee not found", nil)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ReplaceEmployees handles POST /api/employees/bulk
func (h *Handlers) ReplaceEmployees(c *gin.Context) {
	var req BulkEmployeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	n, err := h.employees.Replace(c.Request.Context(), req.Names)
	if err != nil {
		h.serviceError(c, "failed to replace employees", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"ativos": n}})
}

// serviceError maps service errors onto status codes.
func (h *Handlers) serviceError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrPersistenceDisabled):
		h.fail(c, http.StatusServiceUnavailable, "persistence is disabled", err)
	case errors.Is(err, service.ErrNoDocuments):
		h.fail(c, http.StatusBadRequest, "no documents to process", err)
	case errors.Is(err, service.ErrInvalidInput):
		h.fail(c, http.StatusBadRequest, err.Error(), err)
	default:
		h.fail(c, http.StatusInternalServerError, msg, err)
	}
}

func (h *Handlers) fail(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		h.logger.Warn(msg, zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: msg})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
