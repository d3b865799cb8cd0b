package external

import (
	"context"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// PortalAPI is the raw cBioPortal surface wrapped by ResilientClient.
type PortalAPI interface {
	ListGenes(ctx context.Context, limit int) ([]domain.CatalogEntry, error)
	GetGene(ctx context.Context, symbol string) (*domain.CatalogEntry, error)
	FetchMutations(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error)
	ListStudies(ctx context.Context) ([]domain.Study, error)
	Status(ctx context.Context) (*PortalInfo, error)
}

var (
	_ PortalAPI              = (*CBioPortalClient)(nil)
	_ PortalAPI              = (*ResilientClient)(nil)
	_ domain.MutationFetcher = (*ResilientClient)(nil)
	_ domain.CatalogSource   = (*ResilientClient)(nil)
	_ domain.StudySource     = (*ResilientClient)(nil)
)
