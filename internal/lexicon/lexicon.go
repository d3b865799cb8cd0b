// Package lexicon is the single table of gene tokens, cancer keywords and
// cohort mappings shared by the keyword interpreter and the model prompt.
package lexicon

import (
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// DefaultStudy is the cohort used when no cancer type maps to a study.
const DefaultStudy = "msk_impact_2017"

// CancerGroup is a canonical cancer type plus the keywords that select it.
type CancerGroup struct {
	Type     string
	Keywords []string
}

// QueryKindGroup maps keywords to a query type.
type QueryKindGroup struct {
	Kind     domain.QueryType
	Keywords []string
}

// genes is ordered by priority: the keyword interpreter takes the first hit.
var genes = []string{
	"TP53", "BRCA1", "BRCA2", "EGFR", "KRAS", "PTEN", "PIK3CA", "APC", "RB1",
	"NF1", "CDKN2A", "BRAF", "MTOR", "FGFR3", "ALK", "ROS1", "NRAS", "HRAS",
	"AKT1", "ERBB2",
}

var cancerGroups = []CancerGroup{
	{Type: "breast", Keywords: []string{"breast", "brca"}},
	{Type: "lung", Keywords: []string{"lung", "nsclc", "sclc"}},
	{Type: "colorectal", Keywords: []string{"colorectal", "colon", "crc"}},
	{Type: "ovarian", Keywords: []string{"ovarian", "ovary"}},
	{Type: "prostate", Keywords: []string{"prostate"}},
	{Type: "melanoma", Keywords: []string{"melanoma", "skin"}},
	{Type: "pancreatic", Keywords: []string{"pancreatic", "pancreas"}},
	{Type: "glioblastoma", Keywords: []string{"glioblastoma", "gbm", "glioma"}},
}

var queryKinds = []QueryKindGroup{
	{Kind: domain.QueryExpression, Keywords: []string{"expression", "expressed", "mrna"}},
	{Kind: domain.QueryCopyNumber, Keywords: []string{"copy number", "cna", "amplification", "amplified", "deletion"}},
	{Kind: domain.QueryClinical, Keywords: []string{"survival", "clinical", "prognosis", "outcome"}},
}

var cohorts = map[string]string{
	"breast":     "brca_tcga",
	"lung":       "luad_tcga",
	"colorectal": "coadread_tcga",
	"ovarian":    "ov_tcga",
	"prostate":   "prad_tcga",
}

var exampleGenes = []string{"TP53", "BRCA1", "EGFR", "KRAS"}

// Genes returns the recognized gene tokens in priority order.
func Genes() []string {
	return append([]string(nil), genes...)
}

// CancerGroups returns the cancer keyword groups in match order.
func CancerGroups() []CancerGroup {
	out := make([]CancerGroup, len(cancerGroups))
	for i, g := range cancerGroups {
		out[i] = CancerGroup{Type: g.Type, Keywords: append([]string(nil), g.Keywords...)}
	}
	return out
}

// CancerTypes returns the canonical cancer type names.
func CancerTypes() []string {
	out := make([]string, len(cancerGroups))
	for i, g := range cancerGroups {
		out[i] = g.Type
	}
	return out
}

// QueryKinds returns the query kind keyword groups in match order.
func QueryKinds() []QueryKindGroup {
	return append([]QueryKindGroup(nil), queryKinds...)
}

// ExampleGenes are offered to users whose query named no gene.
func ExampleGenes() []string {
	return append([]string(nil), exampleGenes...)
}

// StudyFor maps a cancer type to its cohort. Unknown or empty types map to
// fallback, or DefaultStudy when fallback is empty.
func StudyFor(cancerType, fallback string) string {
	if study, ok := cohorts[strings.ToLower(strings.TrimSpace(cancerType))]; ok {
		return study
	}
	if fallback == "" {
		return DefaultStudy
	}
	return fallback
}

// StudyLabel renders a study id as a short cancer label, e.g. "BRCA TCGA".
func StudyLabel(studyID string) string {
	return strings.ToUpper(strings.ReplaceAll(studyID, "_", " "))
}

// NotRecognizedMessage is returned when no gene could be detected.
func NotRecognizedMessage() string {
	return "Gene not recognized. Try: " + strings.Join(exampleGenes, ", ") + ", etc."
}
