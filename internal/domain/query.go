package domain

import (
	"fmt"
	"time"
)

// QueryType is the kind of data a query asks for.
type QueryType string

const (
	QueryMutations  QueryType = "mutations"
	QueryExpression QueryType = "expression"
	QueryCopyNumber QueryType = "copy_number"
	QueryClinical   QueryType = "clinical"
	QueryGeneral    QueryType = "general"
)

// QueryTypes lists the recognized query kinds.
var QueryTypes = []QueryType{QueryMutations, QueryExpression, QueryCopyNumber, QueryClinical, QueryGeneral}

// IsValid reports whether q is one of the recognized query kinds.
func (q QueryType) IsValid() bool {
	for _, known := range QueryTypes {
		if q == known {
			return true
		}
	}
	return false
}

// Confidence bounds and defaults for interpretations.
const (
	MinConfidence      = 0.0
	MaxConfidence      = 10.0
	DefaultConfidence  = 5.0
	FallbackConfidence = 0.0
)

// QueryInterpretation is the structured reading of a free-text query.
type QueryInterpretation struct {
	Genes        []string  `json:"genes"`
	CancerTypes  []string  `json:"cancer_types"`
	QueryType    QueryType `json:"query_type"`
	Filters      []string  `json:"filters"`
	Confidence   float64   `json:"confidence"`
	Reasoning    string    `json:"reasoning"`
	FallbackUsed bool      `json:"fallback_used"`
	// Unrecognized is set by the keyword interpreter when no gene token matched.
	Unrecognized bool `json:"unrecognized,omitempty"`
}

// PrimaryGene returns the first detected gene.
func (qi *QueryInterpretation) PrimaryGene() (string, bool) {
	if qi == nil || len(qi.Genes) == 0 {
		return "", false
	}
	return qi.Genes[0], true
}

// PrimaryCancerType returns the first detected cancer type.
func (qi *QueryInterpretation) PrimaryCancerType() (string, bool) {
	if qi == nil || len(qi.CancerTypes) == 0 {
		return "", false
	}
	return qi.CancerTypes[0], true
}

// CatalogEntry is one canonical gene.
type CatalogEntry struct {
	Symbol       string `json:"symbol"`
	EntrezGeneID int    `json:"entrezGeneId,omitempty"`
	Type         string `json:"type,omitempty"`
	Cytoband     string `json:"cytoband,omitempty"`
}

// CatalogSnapshot is the persisted form of the catalog.
type CatalogSnapshot struct {
	Source  string         `json:"source"`
	SavedAt time.Time      `json:"saved_at"`
	Entries []CatalogEntry `json:"entries"`
}

// ValidationReport partitions a set of symbols against the catalog.
type ValidationReport struct {
	Valid       []string            `json:"valid"`
	Invalid     []string            `json:"invalid"`
	Suggestions map[string][]string `json:"suggestions"`
	// FormatErrors explains invalid symbols that break HUGO naming rules.
	FormatErrors map[string]string `json:"format_errors,omitempty"`
}

// AllValid reports whether every input symbol was found.
func (r ValidationReport) AllValid() bool {
	return len(r.Invalid) == 0
}

// Summary renders the short human-readable validation line.
func (r ValidationReport) Summary() string {
	total := len(r.Valid) + len(r.Invalid)
	return fmt.Sprintf("%d/%d genes validated successfully", len(r.Valid), total)
}

// FetchPlan holds the resolved parameters of a mutation request.
type FetchPlan struct {
	GeneSymbol         string `json:"gene_symbol"`
	EntrezGeneID       int    `json:"entrez_gene_id,omitempty"`
	StudyID            string `json:"study_id"`
	MolecularProfileID string `json:"molecular_profile_id"`
	SampleListID       string `json:"sample_list_id"`
}

// NewFetchPlan derives profile and sample list identifiers from the study.
func NewFetchPlan(gene string, entrezID int, studyID string) FetchPlan {
	return FetchPlan{
		GeneSymbol:         gene,
		EntrezGeneID:       entrezID,
		StudyID:            studyID,
		MolecularProfileID: studyID + "_mutations",
		SampleListID:       studyID + "_all",
	}
}

// RawMutation is a mutation as returned by cBioPortal.
type RawMutation struct {
	SampleID        string `json:"sampleId"`
	PatientID       string `json:"patientId,omitempty"`
	StudyID         string `json:"studyId,omitempty"`
	EntrezGeneID    int    `json:"entrezGeneId,omitempty"`
	ProteinChange   string `json:"proteinChange"`
	MutationType    string `json:"mutationType"`
	Chromosome      string `json:"chr"`
	StartPosition   int64  `json:"startPosition"`
	EndPosition     int64  `json:"endPosition,omitempty"`
	ReferenceAllele string `json:"referenceAllele"`
	VariantAllele   string `json:"variantAllele"`
}

// MutationRecord is the display-normalized mutation shape.
type MutationRecord struct {
	SampleID   string `json:"sample_id"`
	Mutation   string `json:"mutation"`
	Type       string `json:"type"`
	CancerType string `json:"cancer_type"`
	Chromosome string `json:"chromosome"`
	Position   string `json:"position"`
	RefAllele  string `json:"ref_allele"`
	VarAllele  string `json:"var_allele"`
}

// SampleEntry is one gene in the static sample dataset.
type SampleEntry struct {
	Gene        string           `json:"gene"`
	Description string           `json:"description"`
	Mutations   []MutationRecord `json:"mutations"`
}

// Study is a cBioPortal study summary.
type Study struct {
	StudyID      string `json:"studyId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CancerTypeID string `json:"cancerTypeId"`
	SampleCount  int    `json:"allSampleCount,omitempty"`
}

// ResultStatus is the caller-facing status of a resolved query.
type ResultStatus string

const (
	StatusSuccess  ResultStatus = "success"
	StatusNotFound ResultStatus = "not_found"
	StatusError    ResultStatus = "error"
)

// DataSource tags where returned records came from.
type DataSource string

const (
	SourceLive   DataSource = "live"
	SourceSample DataSource = "sample"
	SourceError  DataSource = "error"
	SourceNone   DataSource = "none"
)

// ResolutionState is a step of query resolution.
type ResolutionState string

const (
	StateReceived       ResolutionState = "received"
	StateInterpreted    ResolutionState = "interpreted"
	StateValidated      ResolutionState = "validated"
	StatePlanBuilt      ResolutionState = "plan_built"
	StateFetchAttempted ResolutionState = "fetch_attempted"
	StateSuccessLive    ResolutionState = "success_live"
	StateSuccessSample  ResolutionState = "success_sample"
	StateNotFound       ResolutionState = "not_found"
	StateUnknownEntity  ResolutionState = "unknown_entity"
	StateError          ResolutionState = "error"
)

// Terminal reports whether s ends resolution.
func (s ResolutionState) Terminal() bool {
	switch s {
	case StateSuccessLive, StateSuccessSample, StateNotFound, StateUnknownEntity, StateError:
		return true
	}
	return false
}

// QueryResult is the single structured answer for one query.
type QueryResult struct {
	Status         ResultStatus         `json:"status"`
	State          ResolutionState      `json:"state"`
	Query          string               `json:"query"`
	Interpretation *QueryInterpretation `json:"interpretation,omitempty"`
	Validation     *ValidationReport    `json:"validation,omitempty"`
	Plan           *FetchPlan           `json:"plan,omitempty"`
	Gene           string               `json:"gene,omitempty"`
	CancerType     string               `json:"cancer_type,omitempty"`
	StudyID        string               `json:"study_id,omitempty"`
	Description    string               `json:"description,omitempty"`
	Mutations      []MutationRecord     `json:"mutations"`
	Count          int                  `json:"count"`
	TotalCount     int                  `json:"total_count"`
	Source         DataSource           `json:"source"`
	SourceLabel    string               `json:"source_label,omitempty"`
	Message        string               `json:"message,omitempty"`
	ErrorKind      string               `json:"error_kind,omitempty"`
	Trace          []ResolutionState    `json:"trace"`
	DurationMs     int64                `json:"duration_ms"`
}
