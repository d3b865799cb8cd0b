package external

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) *CBioPortalClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCBioPortalClient(domain.CBioPortalConfig{
		BaseURL:       server.URL,
		Timeout:       2 * time.Second,
		StatusTimeout: time.Second,
		RateLimit:     100,
	})
}

func TestCBioPortalClient_ListGenes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/genes", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[
			{"entrezGeneId": 7157, "hugoGeneSymbol": "TP53", "type": "protein-coding", "cytoband": "17p13.1"},
			{"entrezGeneId": 0, "hugoGeneSymbol": "", "type": "unknown"},
			{"entrezGeneId": 672, "hugoGeneSymbol": "brca1", "type": "protein-coding"},
			{"entrezGeneId": 1956, "hugoGeneSymbol": "EGFR", "type": "protein-coding"},
			{"entrezGeneId": 3845, "hugoGeneSymbol": "KRAS", "type": "protein-coding"}
		]`))
	}))

	genes, err := client.ListGenes(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, genes, 3)
	assert.Equal(t, domain.CatalogEntry{Symbol: "TP53", EntrezGeneID: 7157, Type: "protein-coding", Cytoband: "17p13.1"}, genes[0])
	assert.Equal(t, "BRCA1", genes[1].Symbol)
	assert.Equal(t, "EGFR", genes[2].Symbol)
}

func TestCBioPortalClient_GetGene(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/genes/TP53":
			_, _ = w.Write([]byte(`{"entrezGeneId": 7157, "hugoGeneSymbol": "TP53", "type": "protein-coding"}`))
		case "/genes/BROKEN":
			http.Error(w, "oops", http.StatusInternalServerError)
		default:
			http.Error(w, `{"message":"Gene not found"}`, http.StatusNotFound)
		}
	}))

	gene, err := client.GetGene(context.Background(), "tp53")
	require.NoError(t, err)
	assert.Equal(t, 7157, gene.EntrezGeneID)

	_, err = client.GetGene(context.Background(), "NOTAGENE")
	assert.ErrorIs(t, err, domain.ErrGeneNotFound)

	_, err = client.GetGene(context.Background(), "BROKEN")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)

	_, err = client.GetGene(context.Background(), "  ")
	assert.Error(t, err)
}

func TestCBioPortalClient_FetchMutations(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/molecular-profiles/brca_tcga_mutations/mutations/fetch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var filter mutationFilter
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
		assert.Equal(t, "brca_tcga_all", filter.SampleListID)
		assert.Equal(t, []int{7157}, filter.EntrezGeneIDs)

		_, _ = w.Write([]byte(`[{"sampleId":"TCGA-1","proteinChange":"R175H","mutationType":"Missense_Mutation","chr":"17","startPosition":7675088,"referenceAllele":"C","variantAllele":"T"}]`))
	}))

	plan := domain.NewFetchPlan("TP53", 7157, "brca_tcga")
	mutations, err := client.FetchMutations(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, mutations, 1)
	assert.Equal(t, "R175H", mutations[0].ProteinChange)
	assert.Equal(t, int64(7675088), mutations[0].StartPosition)
}

func TestCBioPortalClient_FetchMutationsResolvesEntrezID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			assert.Equal(t, "/genes/KRAS", r.URL.Path)
			_, _ = w.Write([]byte(`{"entrezGeneId": 3845, "hugoGeneSymbol": "KRAS"}`))
			return
		}
		var filter mutationFilter
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
		assert.Equal(t, []int{3845}, filter.EntrezGeneIDs)
		_, _ = w.Write([]byte(`[]`))
	}))

	mutations, err := client.FetchMutations(context.Background(), domain.NewFetchPlan("KRAS", 0, "msk_impact_2017"))
	require.NoError(t, err)
	assert.Empty(t, mutations)
}

func TestCBioPortalClient_ListStudiesAndStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/studies":
			_, _ = w.Write([]byte(`[{"studyId":"brca_tcga","name":"Breast Invasive Carcinoma","description":"TCGA","cancerTypeId":"brca","allSampleCount":1108}]`))
		case "/info":
			_, _ = w.Write([]byte(`{"portalVersion":"6.0.0","dbVersion":"2.13.1"}`))
		}
	}))

	studies, err := client.ListStudies(context.Background())
	require.NoError(t, err)
	require.Len(t, studies, 1)
	assert.Equal(t, "brca", studies[0].CancerTypeID)
	assert.Equal(t, 1108, studies[0].SampleCount)

	info, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "6.0.0", info.PortalVersion)
}

func TestCBioPortalClient_StatusTimeout(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	client.statusTimeout = 50 * time.Millisecond

	_, err := client.Status(context.Background())
	assert.Error(t, err)
}
