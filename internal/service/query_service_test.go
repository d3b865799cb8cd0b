package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbioportal-query-assistant/internal/catalog"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/interpreter"
	"github.com/cbioportal-query-assistant/internal/lexicon"
	"github.com/cbioportal-query-assistant/internal/sampledata"
)

type fakeProvider struct {
	configured bool
	reply      string
	err        error
}

func (f *fakeProvider) Name() string     { return "fake" }
func (f *fakeProvider) Configured() bool { return f.configured }
func (f *fakeProvider) Interpret(context.Context, string) (string, error) {
	return f.reply, f.err
}

type fakeFetcher struct {
	mutations []domain.RawMutation
	err       error
	block     bool
	calls     int32
	lastPlan  domain.FetchPlan
	mu        sync.Mutex
}

func (f *fakeFetcher) FetchMutations(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.lastPlan = plan
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.mutations, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func rawMutations(n int) []domain.RawMutation {
	out := make([]domain.RawMutation, n)
	for i := range out {
		out[i] = domain.RawMutation{
			SampleID:        fmt.Sprintf("S-%02d", i),
			ProteinChange:   "R175H",
			MutationType:    "Missense_Mutation",
			Chromosome:      "17",
			StartPosition:   7675088,
			ReferenceAllele: "C",
			VariantAllele:   "T",
		}
	}
	return out
}

func newService(t *testing.T, provider domain.InterpreterProvider, fetcher domain.MutationFetcher, cfg domain.QueryConfig) *QueryService {
	t.Helper()
	logger := quietLogger()
	normalizer, err := interpreter.NewNormalizer(logger)
	require.NoError(t, err)

	cat := catalog.NewFromEntries(lexicon.StaticCatalog(), catalog.WithLogger(logger))
	return NewQueryService(
		interpreter.New(provider, normalizer, logger),
		catalog.NewValidator(cat),
		fetcher,
		cfg,
		lexicon.DefaultStudy,
		logger,
	)
}

func defaultQueryConfig() domain.QueryConfig {
	return domain.QueryConfig{
		DisplayLimit:     30,
		InterpretTimeout: time.Second,
		FetchTimeout:     time.Second,
		MinConfidence:    5,
	}
}

func TestResolve_LiveSuccess(t *testing.T) {
	fetcher := &fakeFetcher{mutations: rawMutations(35)}
	svc := newService(t, nil, fetcher, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "Show me TP53 mutations in breast cancer")

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, domain.StateSuccessLive, res.State)
	assert.Equal(t, domain.SourceLive, res.Source)
	assert.Equal(t, LiveSourceLabel, res.SourceLabel)
	assert.Equal(t, "TP53", res.Gene)
	assert.Equal(t, "breast", res.CancerType)
	assert.Equal(t, "brca_tcga", res.StudyID)
	assert.Equal(t, "Mutations from cBioPortal (brca_tcga)", res.Description)
	assert.Len(t, res.Mutations, 30)
	assert.Equal(t, 30, res.Count)
	assert.Equal(t, 35, res.TotalCount)
	assert.Equal(t, []domain.ResolutionState{
		domain.StateReceived,
		domain.StateInterpreted,
		domain.StateValidated,
		domain.StatePlanBuilt,
		domain.StateFetchAttempted,
		domain.StateSuccessLive,
	}, res.Trace)

	require.NotNil(t, res.Plan)
	assert.Equal(t, domain.FetchPlan{
		GeneSymbol:         "TP53",
		EntrezGeneID:       7157,
		StudyID:            "brca_tcga",
		MolecularProfileID: "brca_tcga_mutations",
		SampleListID:       "brca_tcga_all",
	}, fetcher.lastPlan)

	require.NotNil(t, res.Interpretation)
	assert.True(t, res.Interpretation.FallbackUsed)
	assert.Equal(t, 0.0, res.Interpretation.Confidence)

	first := res.Mutations[0]
	assert.Equal(t, "S-00", first.SampleID)
	assert.Equal(t, "Missense", first.Type)
	assert.Equal(t, "BRCA TCGA", first.CancerType)
	assert.Equal(t, "7675088", first.Position)
}

func TestResolve_DefaultStudy(t *testing.T) {
	fetcher := &fakeFetcher{mutations: rawMutations(2)}
	svc := newService(t, nil, fetcher, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "KRAS in melanoma")

	assert.Equal(t, domain.StateSuccessLive, res.State)
	assert.Equal(t, "melanoma", res.CancerType)
	assert.Equal(t, lexicon.DefaultStudy, res.StudyID)
	assert.Equal(t, 2, res.TotalCount)
}

func TestResolve_SampleFallback(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
		cfg     domain.QueryConfig
	}{
		{"fetch error", &fakeFetcher{err: errors.New("connection refused")}, defaultQueryConfig()},
		{"zero records", &fakeFetcher{}, defaultQueryConfig()},
		{"fetch timeout", &fakeFetcher{block: true}, domain.QueryConfig{DisplayLimit: 30, FetchTimeout: 20 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, nil, tt.fetcher, tt.cfg)

			res := svc.Resolve(context.Background(), "EGFR in lung cancer")

			assert.Equal(t, domain.StatusSuccess, res.Status)
			assert.Equal(t, domain.StateSuccessSample, res.State)
			assert.Equal(t, domain.SourceSample, res.Source)
			assert.Equal(t, sampledata.SourceLabel, res.SourceLabel)
			assert.Equal(t, "EGFR", res.Gene)
			assert.Equal(t, "Epidermal growth factor receptor (Sample Data)", res.Description)
			require.Len(t, res.Mutations, 3)
			assert.Equal(t, 3, res.Count)
			assert.Equal(t, "p.L858R", res.Mutations[0].Mutation)
			assert.Contains(t, res.Trace, domain.StateFetchAttempted)
			assert.Equal(t, int32(1), atomic.LoadInt32(&tt.fetcher.calls))
		})
	}
}

func TestResolve_NoSampleIsError(t *testing.T) {
	svc := newService(t, nil, &fakeFetcher{err: errors.New("503")}, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "KRAS in colon")

	assert.Equal(t, domain.StatusError, res.Status)
	assert.Equal(t, domain.StateError, res.State)
	assert.Equal(t, domain.SourceError, res.Source)
	assert.Equal(t, "No data found for KRAS (API unavailable)", res.Message)
	assert.Equal(t, domain.KindExternalDataUnavailable, res.ErrorKind)
	assert.Empty(t, res.Mutations)
	assert.NotNil(t, res.Mutations)
}

func TestResolve_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		message string
	}{
		{"empty", "", "Empty query"},
		{"whitespace", "   \t", "Empty query"},
		{"no gene", "what is the most common cancer mutation?", "Gene not recognized. Try: TP53, BRCA1, EGFR, KRAS, etc."},
	}


	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{mutations: rawMutations(1)}
			svc := newService(t, nil, fetcher, defaultQueryConfig())

			res := svc.Resolve(context.Background(), tt.text)

			assert.Equal(t, domain.StatusNotFound, res.Status)
			assert.Equal(t, domain.StateNotFound, res.State)
			assert.Equal(t, domain.SourceNone, res.Source)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, domain.KindNoEntityDetected, res.ErrorKind)
			assert.Equal(t, tt.text, res.Query)
			assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
			assert.True(t, res.State.Terminal())
		})
	}
}

func TestResolve_ProviderPath(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		reply:      "```json\n{\"genes\":[\"fakegene1\",\"kras\",\"tp53\"],\"cancer_types\":[\"Lung\"],\"query_type\":\"mutations\",\"confidence\":8}\n```",
	}
	fetcher := &fakeFetcher{mutations: rawMutations(1)}
	svc := newService(t, provider, fetcher, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "kras and tp53 in lung")

	assert.Equal(t, domain.StateSuccessLive, res.State)
	assert.Equal(t, "KRAS", res.Gene, "first valid gene is primary")
	assert.Equal(t, "luad_tcga", res.StudyID)
	require.NotNil(t, res.Validation)
	assert.Equal(t, []string{"KRAS", "TP53"}, res.Validation.Valid)
	assert.Equal(t, []string{"FAKEGENE1"}, res.Validation.Invalid)
	assert.False(t, res.Interpretation.FallbackUsed)
	assert.Equal(t, 8.0, res.Interpretation.Confidence)
}

func TestResolve_ProviderFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{configured: true, err: domain.NewProviderError("fake", domain.ProviderTransport, errors.New("timeout"))}
	svc := newService(t, provider, &fakeFetcher{mutations: rawMutations(1)}, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "BRCA1 in ovarian cancer")

	assert.Equal(t, domain.StateSuccessLive, res.State)
	assert.Equal(t, "BRCA1", res.Gene)
	assert.Equal(t, "ov_tcga", res.StudyID)
	assert.True(t, res.Interpretation.FallbackUsed)
}

func TestResolve_MalformedProviderOutputIsNotFound(t *testing.T) {
	provider := &fakeProvider{configured: true, reply: "I am not sure what you mean."}
	fetcher := &fakeFetcher{mutations: rawMutations(1)}
	svc := newService(t, provider, fetcher, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "TP53 in breast")

	assert.Equal(t, domain.StateNotFound, res.State)
	assert.Equal(t, interpreter.MalformedReasoning, res.Interpretation.Reasoning)
	assert.Equal(t, domain.KindMalformedOutput, res.ErrorKind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

func TestResolve_UnknownEntity(t *testing.T) {
	provider := &fakeProvider{configured: true, reply: `{"genes":["TP35"],"confidence":6}`}
	fetcher := &fakeFetcher{mutations: rawMutations(1)}
	svc := newService(t, provider, fetcher, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "TP35 mutations")

	assert.Equal(t, domain.StatusNotFound, res.Status)
	assert.Equal(t, domain.StateUnknownEntity, res.State)
	assert.Equal(t, domain.KindUnknownEntity, res.ErrorKind)
	require.NotNil(t, res.Validation)
	assert.Equal(t, []string{"TP35"}, res.Validation.Invalid)
	assert.Contains(t, res.Validation.Suggestions["TP35"], "TP53")
	assert.Contains(t, res.Message, "TP35")
	assert.Contains(t, res.Message, "TP53")
	assert.Nil(t, res.Plan)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))
}

func TestResolve_ConfidenceGate(t *testing.T) {
	cfg := defaultQueryConfig()
	cfg.EnforceConfidence = true
	cfg.MinConfidence = 6

	low := &fakeProvider{configured: true, reply: `{"genes":["TP53"],"confidence":3}`}
	res := newService(t, low, &fakeFetcher{mutations: rawMutations(1)}, cfg).Resolve(context.Background(), "TP53?")
	assert.Equal(t, domain.StateNotFound, res.State)
	assert.Contains(t, res.Message, "below the required")
	assert.Equal(t, domain.KindLowConfidence, res.ErrorKind)

	high := &fakeProvider{configured: true, reply: `{"genes":["TP53"],"confidence":9}`}
	res = newService(t, high, &fakeFetcher{mutations: rawMutations(1)}, cfg).Resolve(context.Background(), "TP53?")
	assert.Equal(t, domain.StateSuccessLive, res.State)

	// keyword interpretations always carry zero confidence and are not gated
	res = newService(t, nil, &fakeFetcher{mutations: rawMutations(1)}, cfg).Resolve(context.Background(), "TP53?")
	assert.Equal(t, domain.StateSuccessLive, res.State)
}

func TestResolve_AdvisoryConfidence(t *testing.T) {
	low := &fakeProvider{configured: true, reply: `{"genes":["TP53"],"confidence":1}`}
	res := newService(t, low, &fakeFetcher{mutations: rawMutations(1)}, defaultQueryConfig()).Resolve(context.Background(), "TP53?")

	assert.Equal(t, domain.StateSuccessLive, res.State)
	assert.Equal(t, 1.0, res.Interpretation.Confidence)
	assert.Empty(t, res.ErrorKind)
}

func TestResolve_KeywordGenesValidateOffline(t *testing.T) {
	for _, gene := range lexicon.Genes() {
		t.Run(gene, func(t *testing.T) {
			svc := newService(t, nil, &fakeFetcher{err: errors.New("portal down")}, defaultQueryConfig())

			res := svc.Resolve(context.Background(), gene+" mutations in breast cancer")

			assert.NotEqual(t, domain.StateUnknownEntity, res.State)
			assert.Equal(t, gene, res.Gene)
			assert.Contains(t, []domain.ResolutionState{domain.StateSuccessSample, domain.StateError}, res.State)
		})
	}
}

func TestResolve_NilFetcherUsesSample(t *testing.T) {
	svc := newService(t, nil, nil, defaultQueryConfig())

	res := svc.Resolve(context.Background(), "TP53")

	assert.Equal(t, domain.StateSuccessSample, res.State)
	assert.Equal(t, 4, res.Count)
}

func TestResolve_Concurrent(t *testing.T) {
	svc := newService(t, nil, &fakeFetcher{mutations: rawMutations(5)}, defaultQueryConfig())
	queries := []string{"TP53 in breast", "EGFR in lung", "KRAS", "nothing here"}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			res := svc.Resolve(context.Background(), q)
			assert.True(t, res.State.Terminal())
		}(queries[i%len(queries)])
	}
	wg.Wait()
}

func TestCollapseMutationType(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Missense_Mutation", "Missense"},
		{"Nonsense_Mutation", "Truncating"},
		{"Truncating", "Truncating"},
		{"Frame_Shift_Del", "Frameshift"},
		{"Frameshift", "Frameshift"},
		{"In_Frame_Ins", "In-frame"},
		{"Inframe", "In-frame"},
		{"Splice_Site", "Splice"},
		{"Silent", "Silent"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseMutationType(tt.in))
		})
	}
}

func TestMapMutation_Defaults(t *testing.T) {
	rec := MapMutation(domain.RawMutation{MutationType: "Splice_Region"}, "luad_tcga")

	assert.Equal(t, domain.MutationRecord{
		SampleID:   "N/A",
		Mutation:   "N/A",
		Type:       "Splice",
		CancerType: "LUAD TCGA",
		Chromosome: "N/A",
		Position:   "N/A",
		RefAllele:  "N/A",
		VarAllele:  "N/A",
	}, rec)
}
