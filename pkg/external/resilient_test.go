package external

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/domain"
)

type fakePortal struct {
	mutations []domain.RawMutation
	studies   []domain.Study
	err       error
	calls     int32
}

func (f *fakePortal) ListGenes(ctx context.Context, limit int) ([]domain.CatalogEntry, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []domain.CatalogEntry{{Symbol: "TP53", EntrezGeneID: 7157}}, nil
}

func (f *fakePortal) GetGene(ctx context.Context, symbol string) (*domain.CatalogEntry, error) {
	atomic.AddInt32(&f.calls, 1)
	if symbol == "NOPE" {
		return nil, domain.ErrGeneNotFound
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.CatalogEntry{Symbol: symbol, EntrezGeneID: 1}, nil
}

func (f *fakePortal) FetchMutations(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.mutations, f.err
}

func (f *fakePortal) ListStudies(ctx context.Context) ([]domain.Study, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.studies, f.err
}

func (f *fakePortal) Status(ctx context.Context) (*PortalInfo, error) {
	return &PortalInfo{PortalVersion: "test"}, f.err
}

func memoryCache(t *testing.T) *TieredCache {
	t.Helper()
	cache, err := NewTieredCache(domain.CacheConfig{DefaultTTL: time.Minute}, quietLogger())
	require.NoError(t, err)
	return cache
}

func TestResilientClient_CachesMutations(t *testing.T) {
	portal := &fakePortal{mutations: []domain.RawMutation{{SampleID: "S1"}}}
	client := NewResilientClient(portal, memoryCache(t), domain.CircuitBreakerConfig{}, quietLogger())
	plan := domain.NewFetchPlan("TP53", 7157, "brca_tcga")

	for i := 0; i < 3; i++ {
		got, err := client.FetchMutations(context.Background(), plan)
		require.NoError(t, err)
		assert.Equal(t, "S1", got[0].SampleID)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&portal.calls))
}

func TestResilientClient_DoesNotCacheEmpty(t *testing.T) {
	portal := &fakePortal{}
	client := NewResilientClient(portal, memoryCache(t), domain.CircuitBreakerConfig{}, quietLogger())
	plan := domain.NewFetchPlan("TP53", 7157, "brca_tcga")

	for i := 0; i < 2; i++ {
		got, err := client.FetchMutations(context.Background(), plan)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&portal.calls))
}

func TestResilientClient_CachesStudies(t *testing.T) {
	portal := &fakePortal{studies: []domain.Study{{StudyID: "luad_tcga"}}}
	client := NewResilientClient(portal, memoryCache(t), domain.CircuitBreakerConfig{}, quietLogger())

	for i := 0; i < 2; i++ {
		studies, err := client.ListStudies(context.Background())
		require.NoError(t, err)
		assert.Len(t, studies, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&portal.calls))
}

func TestResilientClient_OpensCircuit(t *testing.T) {
	portal := &fakePortal{err: errors.New("connection reset")}
	client := NewResilientClient(portal, nil, domain.CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute}, quietLogger())
	plan := domain.NewFetchPlan("TP53", 7157, "brca_tcga")

	for i := 0; i < 2; i++ {
		_, err := client.FetchMutations(context.Background(), plan)
		assert.ErrorIs(t, err, domain.ErrExternalDataUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), client.BreakerStates()["cbioportal-mutations"])
	assert.Equal(t, gobreaker.StateClosed.String(), client.BreakerStates()["cbioportal-studies"])

	_, err := client.FetchMutations(context.Background(), plan)
	assert.ErrorIs(t, err, domain.ErrExternalDataUnavailable)
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&portal.calls))
}

func TestResilientClient_GeneNotFoundDoesNotTrip(t *testing.T) {
	portal := &fakePortal{}
	client := NewResilientClient(portal, nil, domain.CircuitBreakerConfig{MaxFailures: 1}, quietLogger())

	for i := 0; i < 3; i++ {
		_, err := client.GetGene(context.Background(), "NOPE")
		assert.ErrorIs(t, err, domain.ErrGeneNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed.String(), client.BreakerStates()["cbioportal-genes"])

	gene, err := client.GetGene(context.Background(), "TP53")
	require.NoError(t, err)
	assert.Equal(t, "TP53", gene.Symbol)

	genes, err := client.ListGenes(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, genes, 1)
}
