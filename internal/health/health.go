// Package health runs component checks for the service's dependencies.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/catalog"
	"github.com/cbioportal-query-assistant/internal/database"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/pkg/external"
)

// State is the health of one component or of the whole service.
type State string

const (
	StateHealthy   State = "healthy"
	StateDegraded  State = "degraded"
	StateUnhealthy State = "unhealthy"
)

// ComponentHealth is the result of one check.
type ComponentHealth struct {
	Name     string                 `json:"name"`
	Status   State                  `json:"status"`
	Message  string                 `json:"message"`
	Duration time.Duration          `json:"duration_ns"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// Status aggregates all component checks.
type Status struct {
	Overall    State                      `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// Check is one component probe.
type Check interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// Checker runs registered checks in parallel.
type Checker struct {
	checks  []Check
	timeout time.Duration
	version string
	started time.Time
	logger  *logrus.Logger
}

// NewChecker creates a checker. timeout bounds each run.
func NewChecker(version string, timeout time.Duration, logger *logrus.Logger, checks ...Check) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Checker{
		checks:  checks,
		timeout: timeout,
		version: version,
		started: time.Now(),
		logger:  logger,
	}
}

// Register adds a check.
func (c *Checker) Register(check Check) {
	c.checks = append(c.checks, check)
}

// Run executes every check and folds the results into one status. Any
// unhealthy component makes the service unhealthy; a degraded component
// makes it degraded.
func (c *Checker) Run(ctx context.Context) *Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results := make(chan ComponentHealth, len(c.checks))
	var wg sync.WaitGroup
	for _, check := range c.checks {
		wg.Add(1)
		go func(ch Check) {
			defer wg.Done()
			start := time.Now()
			result := ch.Check(ctx)
			result.Name = ch.Name()
			result.Duration = time.Since(start)
			results <- result
		}(check)
	}
	wg.Wait()
	close(results)

	status := &Status{
		Overall:    StateHealthy,
		Timestamp:  time.Now().UTC(),
		Version:    c.version,
		Uptime:     time.Since(c.started).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth, len(c.checks)),
	}
	var failing []string
	for result := range results {
		status.Components[result.Name] = result
		switch result.Status {
		case StateUnhealthy:
			status.Overall = StateUnhealthy
			failing = append(failing, result.Name)
		case StateDegraded:
			if status.Overall == StateHealthy {
				status.Overall = StateDegraded
			}
			failing = append(failing, result.Name)
		}
	}

	if status.Overall != StateHealthy {
		c.logger.WithFields(logrus.Fields{
			"overall_status": status.Overall,
			"components":     failing,
		}).Warn("Health check completed with issues")
	}
	return status
}

// DatabaseCheck pings the catalog database. With Schema set it also reports
// the migrated catalog schema version and degrades when it is behind or dirty.
type DatabaseCheck struct {
	DB     *sql.DB
	Schema bool
}

func (DatabaseCheck) Name() string { return "database" }

func (d DatabaseCheck) Check(ctx context.Context) ComponentHealth {
	if d.DB == nil {
		return ComponentHealth{Status: StateHealthy, Message: "Database not configured"}
	}
	if err := d.DB.PingContext(ctx); err != nil {
		return ComponentHealth{Status: StateUnhealthy, Message: "Database connection failed", Error: err.Error()}
	}
	stats := d.DB.Stats()
	result := ComponentHealth{
		Status:  StateHealthy,
		Message: "Database connection healthy",
		Metadata: map[string]interface{}{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	}
	if !d.Schema {
		return result
	}

	schema, err := database.ReadSchemaStatus(ctx, d.DB)
	if err != nil {
		result.Status = StateDegraded
		result.Message = "Catalog schema version unreadable"
		result.Error = err.Error()
		return result
	}
	result.Metadata["schema_version"] = schema.Version
	result.Metadata["schema_dirty"] = schema.Dirty
	if !schema.Current() {
		result.Status = StateDegraded
		result.Message = fmt.Sprintf("Catalog schema %s, want version %d", schema, database.CatalogSchemaVersion)
	}
	return result
}

// CacheCheck reports the memory tier size and pings Redis when configured.
type CacheCheck struct {
	Cache *external.TieredCache
}

func (CacheCheck) Name() string { return "cache" }

func (c CacheCheck) Check(ctx context.Context) ComponentHealth {
	if c.Cache == nil {
		return ComponentHealth{Status: StateDegraded, Message: "Cache not configured"}
	}
	meta := map[string]interface{}{"memory_items": c.Cache.Len(), "redis": c.Cache.HasRedis()}
	if !c.Cache.HasRedis() {
		return ComponentHealth{Status: StateHealthy, Message: "Memory tier only", Metadata: meta}
	}
	if err := c.Cache.Ping(ctx); err != nil {
		return ComponentHealth{Status: StateDegraded, Message: "Redis tier unreachable", Metadata: meta, Error: err.Error()}
	}
	return ComponentHealth{Status: StateHealthy, Message: "Redis tier reachable", Metadata: meta}
}

// PortalStatus is satisfied by the cBioPortal clients.
type PortalStatus interface {
	Status(ctx context.Context) (*external.PortalInfo, error)
}

// PortalCheck probes cBioPortal. An unreachable portal only degrades the
// service because queries fall back to sample data.
type PortalCheck struct {
	Portal PortalStatus
}

func (PortalCheck) Name() string { return "cbioportal" }

func (p PortalCheck) Check(ctx context.Context) ComponentHealth {
	if p.Portal == nil {
		return ComponentHealth{Status: StateDegraded, Message: "cBioPortal client not configured"}
	}
	info, err := p.Portal.Status(ctx)
	if err != nil {
		return ComponentHealth{Status: StateDegraded, Message: "cBioPortal unreachable, sample data in use", Error: err.Error()}
	}
	return ComponentHealth{
		Status:   StateHealthy,
		Message:  "cBioPortal reachable",
		Metadata: map[string]interface{}{"portal_version": info.PortalVersion},
	}
}

// InterpreterCheck reports whether a model backend is configured.
type InterpreterCheck struct {
	Provider domain.InterpreterProvider
}

func (InterpreterCheck) Name() string { return "interpreter" }

func (i InterpreterCheck) Check(context.Context) ComponentHealth {
	if i.Provider == nil || !i.Provider.Configured() {
		name := domain.ProviderNone
		if i.Provider != nil {
			name = i.Provider.Name()
		}
		return ComponentHealth{
			Status:   StateDegraded,
			Message:  "Provider not configured, keyword fallback active",
			Metadata: map[string]interface{}{"provider": name},
		}
	}
	return ComponentHealth{
		Status:   StateHealthy,
		Message:  "Provider configured",
		Metadata: map[string]interface{}{"provider": i.Provider.Name()},
	}
}

// CatalogCheck reports the active gene mapping.
type CatalogCheck struct {
	Catalog *catalog.Catalog
}

func (CatalogCheck) Name() string { return "catalog" }

func (c CatalogCheck) Check(context.Context) ComponentHealth {
	if c.Catalog == nil || c.Catalog.Size() == 0 {
		return ComponentHealth{Status: StateUnhealthy, Message: "Gene catalog is empty"}
	}
	return ComponentHealth{
		Status:  StateHealthy,
		Message: "Gene catalog loaded",
		Metadata: map[string]interface{}{
			"genes":     c.Catalog.Size(),
			"source":    string(c.Catalog.Source()),
			"loaded_at": c.Catalog.LoadedAt().Format(time.RFC3339),
		},
	}
}
