package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cbioportal-query-assistant/internal/catalog"
	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/interpreter"
	"github.com/cbioportal-query-assistant/internal/lexicon"
	"github.com/cbioportal-query-assistant/internal/logging"
	"github.com/cbioportal-query-assistant/internal/metrics"
	"github.com/cbioportal-query-assistant/internal/sampledata"
)

// LiveSourceLabel tags records fetched from cBioPortal.
const LiveSourceLabel = "cBioPortal API"

const notAvailable = "N/A"

// QueryService resolves free-text questions into mutation results. Each
// query takes exactly one interpreter path and one data path.
type QueryService struct {
	interpreter  *interpreter.Interpreter
	validator    *catalog.Validator
	fetcher      domain.MutationFetcher
	config       domain.QueryConfig
	defaultStudy string
	logger       *logrus.Logger
}

// NewQueryService creates a new query service
func NewQueryService(
	interp *interpreter.Interpreter,
	validator *catalog.Validator,
	fetcher domain.MutationFetcher,
	config domain.QueryConfig,
	defaultStudy string,
	logger *logrus.Logger,
) *QueryService {
	if config.DisplayLimit <= 0 {
		config.DisplayLimit = 30
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &QueryService{
		interpreter:  interp,
		validator:    validator,
		fetcher:      fetcher,
		config:       config,
		defaultStudy: defaultStudy,
		logger:       logger,
	}
}

// resolution accumulates one query's result and state trace.
type resolution struct {
	result *domain.QueryResult
	start  time.Time
}

func (r *resolution) advance(state domain.ResolutionState) {
	r.result.State = state
	r.result.Trace = append(r.result.Trace, state)
}

// Interpret returns the structured reading of text, bounded by the
// interpret timeout.
func (s *QueryService) Interpret(ctx context.Context, text string) domain.QueryInterpretation {
	if s.config.InterpretTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.InterpretTimeout)
		defer cancel()
	}
	return s.interpreter.Interpret(ctx, text)
}

// Resolve never returns an error: every failure ends in a terminal state
// carried by the result.
func (s *QueryService) Resolve(ctx context.Context, text string) *domain.QueryResult {
	r := &resolution{
		result: &domain.QueryResult{
			Query:     text,
			Mutations: []domain.MutationRecord{},
			Trace:     []domain.ResolutionState{},
		},
		start: time.Now(),
	}
	r.advance(domain.StateReceived)

	s.run(ctx, r)

	res := r.result
	res.DurationMs = time.Since(r.start).Milliseconds()
	metrics.QueryResults.WithLabelValues(string(res.State), string(res.Source)).Inc()

	logging.FromContext(ctx, s.logger).WithFields(logrus.Fields{
		"state":       res.State,
		"source":      res.Source,
		"gene":        res.Gene,
		"study_id":    res.StudyID,
		"count":       res.Count,
		"duration_ms": res.DurationMs,
	}).Info("Query resolved")
	return res
}

func (s *QueryService) run(ctx context.Context, r *resolution) {
	res := r.result
	text := strings.TrimSpace(res.Query)
	if text == "" {
		s.notFound(r, domain.ErrNoEntityDetected, "Empty query")
		return
	}

	qi := s.Interpret(ctx, text)
	res.Interpretation = &qi
	r.advance(domain.StateInterpreted)

	if s.config.EnforceConfidence && !qi.FallbackUsed && qi.Confidence < s.config.MinConfidence {
		s.notFound(r, domain.ErrLowConfidence, fmt.Sprintf("Interpretation confidence %.1f is below the required %.1f", qi.Confidence, s.config.MinConfidence))
		return
	}

	if len(qi.Genes) == 0 {
		cause := domain.ErrNoEntityDetected
		if qi.Reasoning == interpreter.MalformedReasoning {
			cause = domain.ErrMalformedOutput
		}
		s.notFound(r, cause, lexicon.NotRecognizedMessage())
		return
	}

	report := s.validator.Validate(qi.Genes)
	res.Validation = &report
	r.advance(domain.StateValidated)

	if len(report.Valid) == 0 {
		res.Status = domain.StatusNotFound
		res.Source = domain.SourceNone
		res.Message = unknownEntityMessage(report)
		res.ErrorKind = domain.ErrorKind(domain.ErrUnknownEntity)
		r.advance(domain.StateUnknownEntity)
		return
	}

	gene := report.Valid[0]
	entrezID, _ := s.validator.ResolveID(gene)
	cancerType, _ := qi.PrimaryCancerType()
	plan := domain.NewFetchPlan(gene, entrezID, lexicon.StudyFor(cancerType, s.defaultStudy))
	res.Plan = &plan
	res.Gene = gene
	res.CancerType = cancerType
	r.advance(domain.StatePlanBuilt)

	raw, err := s.fetch(ctx, plan)
	r.advance(domain.StateFetchAttempted)

	if err == nil && len(raw) > 0 {
		s.successLive(r, plan, raw)
		return
	}

	log := logging.FromContext(ctx, s.logger).WithField("gene", gene).WithField("study_id", plan.StudyID)
	if err != nil {
		log.WithError(err).Warn("Live fetch failed, trying sample data")
	} else {
		log.Info("Live fetch returned no records, trying sample data")
	}

	if entry, ok := sampledata.Lookup(gene); ok {
		res.Status = domain.StatusSuccess
		res.Source = domain.SourceSample
		res.SourceLabel = sampledata.SourceLabel
		res.Gene = entry.Gene
		res.Description = entry.Description + sampledata.DescriptionSuffix
		res.Mutations = entry.Mutations
		res.Count = len(entry.Mutations)
		res.TotalCount = len(entry.Mutations)
		r.advance(domain.StateSuccessSample)
		return
	}

	res.Status = domain.StatusError
	res.Source = domain.SourceError
	res.Message = fmt.Sprintf("No data found for %s (API unavailable)", gene)
	res.ErrorKind = domain.ErrorKind(domain.ErrExternalDataUnavailable)
	r.advance(domain.StateError)
}

func (s *QueryService) fetch(ctx context.Context, plan domain.FetchPlan) ([]domain.RawMutation, error) {
	if s.fetcher == nil {
		return nil, domain.ErrExternalDataUnavailable
	}
	if s.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.fetcher.FetchMutations(ctx, plan)
	outcome := "success"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case len(raw) == 0:
		outcome = "empty"
	}
	metrics.FetchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return raw, err
}

func (s *QueryService) successLive(r *resolution, plan domain.FetchPlan, raw []domain.RawMutation) {
	shown := raw
	if len(shown) > s.config.DisplayLimit {
		shown = shown[:s.config.DisplayLimit]
	}
	records := make([]domain.MutationRecord, len(shown))
	for i, m := range shown {
		records[i] = MapMutation(m, plan.StudyID)
	}

	res := r.result
	res.Status = domain.StatusSuccess
	res.Source = domain.SourceLive
	res.SourceLabel = LiveSourceLabel
	res.StudyID = plan.StudyID
	res.Description = fmt.Sprintf("Mutations from cBioPortal (%s)", plan.StudyID)
	res.Mutations = records
	res.Count = len(records)
	res.TotalCount = len(raw)
	r.advance(domain.StateSuccessLive)
}

func (s *QueryService) notFound(r *resolution, cause error, message string) {
	r.result.Status = domain.StatusNotFound
	r.result.Source = domain.SourceNone
	r.result.Message = message
	r.result.ErrorKind = domain.ErrorKind(cause)
	r.advance(domain.StateNotFound)
}

func unknownEntityMessage(report domain.ValidationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Gene not found in catalog: %s.", strings.Join(report.Invalid, ", "))
	for _, symbol := range report.Invalid {
		if s := report.Suggestions[symbol]; len(s) > 0 {
			fmt.Fprintf(&b, " Did you mean %s for %s?", strings.Join(s, " or "), symbol)
		}
	}
	return b.String()
}

// MapMutation converts a raw cBioPortal mutation into the display shape.
func MapMutation(m domain.RawMutation, studyID string) domain.MutationRecord {
	position := notAvailable
	if m.StartPosition > 0 {
		position = strconv.FormatInt(m.StartPosition, 10)
	}
	return domain.MutationRecord{
		SampleID:   orNA(m.SampleID),
		Mutation:   orNA(m.ProteinChange),
		Type:       CollapseMutationType(m.MutationType),
		CancerType: lexicon.StudyLabel(studyID),
		Chromosome: orNA(m.Chromosome),
		Position:   position,
		RefAllele:  orNA(m.ReferenceAllele),
		VarAllele:  orNA(m.VariantAllele),
	}
}

// CollapseMutationType maps provider-specific subtypes onto coarse
// categories. Unmatched types pass through unchanged.
func CollapseMutationType(t string) string {
	switch {
	case t == "":
		return "Unknown"
	case strings.Contains(t, "Missense"):
		return "Missense"
	case strings.Contains(t, "Nonsense"), strings.Contains(t, "Truncating"):
		return "Truncating"
	case strings.Contains(t, "Frame_Shift"), strings.Contains(t, "Frameshift"):
		return "Frameshift"
	case strings.Contains(t, "In_Frame"), strings.Contains(t, "Inframe"):
		return "In-frame"
	case strings.Contains(t, "Splice"):
		return "Splice"
	default:
		return t
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
