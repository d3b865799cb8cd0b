package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cbioportal-query-assistant/internal/domain"
)

func TestKeywordInterpreter_Interpret(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		genes      []string
		cancers    []string
		queryType  domain.QueryType
		recognized bool
	}{
		{"gene and cancer", "Show me TP53 mutations in breast cancer", []string{"TP53"}, []string{"breast"}, domain.QueryMutations, true},
		{"priority order wins", "compare BRCA1 with TP53", []string{"TP53"}, []string{}, domain.QueryMutations, true},
		{"lowercase gene", "egfr in lung adenocarcinoma", []string{"EGFR"}, []string{"lung"}, domain.QueryMutations, true},
		{"synonym", "KRAS in colon tumours", []string{"KRAS"}, []string{"colorectal"}, domain.QueryMutations, true},
		{"expression kind", "EGFR expression in NSCLC", []string{"EGFR"}, []string{"lung"}, domain.QueryExpression, true},
		{"multi-word kind", "KRAS copy number changes", []string{"KRAS"}, []string{}, domain.QueryCopyNumber, true},
		{"clinical kind", "PTEN survival in glioblastoma", []string{"PTEN"}, []string{"glioblastoma"}, domain.QueryClinical, true},
		{"punctuation", "What about TP53?", []string{"TP53"}, []string{}, domain.QueryMutations, true},
		{"no substring match", "TP53X variants", []string{}, []string{}, domain.QueryGeneral, false},
		{"cancer only", "mutations in breast cancer", []string{}, []string{"breast"}, domain.QueryGeneral, false},
		{"nothing", "hello there", []string{}, []string{}, domain.QueryGeneral, false},
	}

	k := NewKeywordInterpreter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qi := k.Interpret(tt.text)

			assert.Equal(t, tt.genes, qi.Genes)
			assert.Equal(t, tt.cancers, qi.CancerTypes)
			assert.Equal(t, tt.queryType, qi.QueryType)
			assert.Equal(t, !tt.recognized, qi.Unrecognized)
			assert.True(t, qi.FallbackUsed)
			assert.Equal(t, domain.FallbackConfidence, qi.Confidence)
			assert.NotNil(t, qi.Filters)
			assert.LessOrEqual(t, len(qi.Genes), 1)
			assert.LessOrEqual(t, len(qi.CancerTypes), 1)
		})
	}
}

func TestKeywordInterpreter_Deterministic(t *testing.T) {
	k := NewKeywordInterpreter()
	text := "BRAF and NRAS in melanoma"
	first := k.Interpret(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, k.Interpret(text))
	}
	assert.Equal(t, []string{"BRAF"}, first.Genes)
	assert.Equal(t, []string{"melanoma"}, first.CancerTypes)
}
