package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/timecard-reconciler/internal/config"
	"github.com/garyjia/timecard-reconciler/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	db           *database.DB
	repositories *RepositoryBundle
	storage      *StorageBundle
	services     *ServiceBundle

	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Container{config: cfg, logger: logger}, nil
}

// Start initializes all components:
// 1. Database and repositories (when enabled)
// 2. Upload storage
// 3. Allowlist, pipeline and application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if c.config.Database.Enabled {
		db, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		c.db = db
		c.repositories = ProvideRepositories(db, c.logger)
		c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))
	}

	c.storage = ProvideStorage(&c.config.Server, c.logger)

	list, err := ProvideAllowlist(&c.config.Allowlist, c.repositories, c.logger)
	if err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize allowlist: %w", err)
	}

	c.services = ProvideServices(&ServiceDeps{
		Config:    c.config,
		Pipeline:  ProvidePipeline(c.config, c.logger),
		Allowlist: list,
		Repos:     c.repositories,
		Storage:   c.storage,
		Logger:    c.logger,
	})

	c.ready.Store(true)
	c.logger.Info("Container started")
	return nil
}

// Close releases resources in reverse order of initialization.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}
	err := c.closeDB()
	c.closed.Store(true)
	c.ready.Store(false)
	return err
}

func (c *Container) closeDB() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Services returns the application services. Valid after Start.
func (c *Container) Services() *ServiceBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    c.ready.Load(),
		Components: make(map[string]ComponentHealth),
	}

	switch {
	case !c.config.Database.Enabled:
		status.Components["database"] = ComponentHealth{Healthy: true, Message: "disabled"}
	case c.db == nil:
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	default:
		if err := c.db.PingContext(ctx); err != nil {
			status.Components["database"] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	}

	ocrMsg := "disabled"
	if c.config.OCR.Enabled {
		ocrMsg = "tesseract " + c.config.OCR.Language
	}
	status.Components["ocr"] = ComponentHealth{Healthy: true, Message: ocrMsg}

	if c.services == nil {
		status.Components["services"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	} else {
		status.Components["services"] = ComponentHealth{Healthy: true}
	}
	return status
}
