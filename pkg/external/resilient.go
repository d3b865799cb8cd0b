package external

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/cbioportal-query-assistant/internal/domain"
)

const studiesCacheKey = "studies"

// ResilientClient wraps the portal API with one circuit breaker per
// operation group and caches mutation and study responses.
type ResilientClient struct {
	api    PortalAPI
	cache  *TieredCache
	logger *logrus.Logger

	genesBreaker     *gobreaker.CircuitBreaker
	mutationsBreaker *gobreaker.CircuitBreaker
	studiesBreaker   *gobreaker.CircuitBreaker
}

// NewResilientClient creates a resilient client. cache may be nil.
func NewResilientClient(api PortalAPI, cache *TieredCache, config domain.CircuitBreakerConfig, logger *logrus.Logger) *ResilientClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &ResilientClient{
		api:              api,
		cache:            cache,
		logger:           logger,
		genesBreaker:     newBreaker("cbioportal-genes", config, logger),
		mutationsBreaker: newBreaker("cbioportal-mutations", config, logger),
		studiesBreaker:   newBreaker("cbioportal-studies", config, logger),
	}
}

func newBreaker(name string, config domain.CircuitBreakerConfig, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	if config.MaxRequests == 0 {
		config.MaxRequests = 3
	}
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.FailureRatio == 0 {
		config.FailureRatio = 0.6
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if config.MaxFailures > 0 && counts.ConsecutiveFailures >= config.MaxFailures {
				return true
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= config.FailureRatio
		},
		// an unknown gene is an answer, not an outage
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrGeneNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}

// ListGenes lists genes through the genes breaker. Results are not cached:
// the catalog persists its own snapshot.
func (r *ResilientClient) ListGenes(ctx context.Context, limit int) ([]domain.CatalogEntry, error) {
	result, err := r.genesBreaker.Execute(func() (interface{}, error) {
		return r.api.ListGenes(ctx, limit)
	})
	if err != nil {
		return nil, r.wrap("gene listing", err)
	}
	return result.([]domain.CatalogEntry), nil
}

// GetGene resolves a symbol through the genes breaker.
func (r *ResilientClient) GetGene(ctx context.Context, symbol string) (*domain.CatalogEntry, error) {
	result, err := r.genesBreaker.Execute(func() (interface{}, error) {
		return r.api.GetGene(ctx, symbol)
	})
	if err != nil {
		if errors.Is(err, domain.ErrGeneNotFound) {
			return nil, err
		}
		return nil, r.wrap("gene lookup", err)
	}
	return result.(*domain.CatalogEntry), nil
}

// FetchMutations serves non-empty results from cache when possible.
func (r *ResilientClient) FetchMutations(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error) {
	key := mutationsKey(plan)

	var cached []domain.RawMutation
	if r.cache != nil && r.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	result, err := r.mutationsBreaker.Execute(func() (interface{}, error) {
		return r.api.FetchMutations(ctx, plan)
	})
	if err != nil {
		return nil, r.wrap("mutation fetch", err)
	}

	mutations := result.([]domain.RawMutation)
	if r.cache != nil && len(mutations) > 0 {
		if cacheErr := r.cache.Set(ctx, key, mutations, 0); cacheErr != nil {
			r.logger.WithError(cacheErr).Warn("failed to cache mutations")
		}
	}
	return mutations, nil
}

// ListStudies serves the study list from cache when possible.
func (r *ResilientClient) ListStudies(ctx context.Context) ([]domain.Study, error) {
	var cached []domain.Study
	if r.cache != nil && r.cache.Get(ctx, studiesCacheKey, &cached) {
		return cached, nil
	}

	result, err := r.studiesBreaker.Execute(func() (interface{}, error) {
		return r.api.ListStudies(ctx)
	})
	if err != nil {
		return nil, r.wrap("study listing", err)
	}

	studies := result.([]domain.Study)
	if r.cache != nil && len(studies) > 0 {
		if cacheErr := r.cache.Set(ctx, studiesCacheKey, studies, 0); cacheErr != nil {
			r.logger.WithError(cacheErr).Warn("failed to cache studies")
		}
	}
	return studies, nil
}

// Status bypasses breakers so health checks see the real state.
func (r *ResilientClient) Status(ctx context.Context) (*PortalInfo, error) {
	return r.api.Status(ctx)
}

// BreakerStates reports each breaker's state by name.
func (r *ResilientClient) BreakerStates() map[string]string {
	out := make(map[string]string, 3)
	for _, cb := range []*gobreaker.CircuitBreaker{r.genesBreaker, r.mutationsBreaker, r.studiesBreaker} {
		out[cb.Name()] = cb.State().String()
	}
	return out
}

func (r *ResilientClient) wrap(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: cBioPortal %s circuit open", domain.ErrExternalDataUnavailable, op)
	}
	return fmt.Errorf("%w: cBioPortal %s failed: %w", domain.ErrExternalDataUnavailable, op, err)
}

func mutationsKey(plan domain.FetchPlan) string {
	return "mutations:" + plan.MolecularProfileID + ":" + plan.SampleListID + ":" + plan.GeneSymbol + ":" + strconv.Itoa(plan.EntrezGeneID)
}
