package domain

import (
	"context"
)

// InterpreterProvider turns free text into the raw text answer of a backend
// model. Every failure is a *ProviderError.
type InterpreterProvider interface {
	Name() string
	Configured() bool
	Interpret(ctx context.Context, text string) (string, error)
}

// CatalogSource lists known genes from a reference service.
type CatalogSource interface {
	ListGenes(ctx context.Context, limit int) ([]CatalogEntry, error)
}

// SnapshotStore persists the catalog between process starts. Load returns
// ErrSnapshotNotFound when nothing has been saved yet.
type SnapshotStore interface {
	Load(ctx context.Context) (*CatalogSnapshot, error)
	Save(ctx context.Context, snapshot *CatalogSnapshot) error
}

// MutationFetcher retrieves raw mutation records for a plan.
type MutationFetcher interface {
	FetchMutations(ctx context.Context, plan FetchPlan) ([]RawMutation, error)
}

// StudySource lists cBioPortal studies.
type StudySource interface {
	ListStudies(ctx context.Context) ([]Study, error)
}

// QueryResolver resolves a free-text query end to end.
type QueryResolver interface {
	Resolve(ctx context.Context, text string) *QueryResult
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetInterpreterConfig() *InterpreterConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
