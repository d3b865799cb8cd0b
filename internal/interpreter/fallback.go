package interpreter

import (
	"strings"
	"unicode"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/lexicon"
)

// KeywordInterpreter is the deterministic safety net used when no model
// backend is available. It detects at most one gene and one cancer type.
type KeywordInterpreter struct {
	genes   []string
	cancers []lexicon.CancerGroup
	kinds   []lexicon.QueryKindGroup
}

// NewKeywordInterpreter creates an interpreter over the shared lexicon.
func NewKeywordInterpreter() *KeywordInterpreter {
	return &KeywordInterpreter{
		genes:   lexicon.Genes(),
		cancers: lexicon.CancerGroups(),
		kinds:   lexicon.QueryKinds(),
	}
}

// Interpret reads text by keyword. The first gene in lexicon priority order
// wins, as does the first matching cancer group.
func (k *KeywordInterpreter) Interpret(text string) domain.QueryInterpretation {
	tokens := tokenize(text)
	padded := " " + strings.Join(tokens, " ") + " "
	has := func(keyword string) bool {
		return strings.Contains(padded, " "+keyword+" ")
	}

	qi := domain.QueryInterpretation{
		Genes:        []string{},
		CancerTypes:  []string{},
		QueryType:    domain.QueryGeneral,
		Filters:      []string{},
		Confidence:   domain.FallbackConfidence,
		FallbackUsed: true,
	}

	for _, gene := range k.genes {
		if has(strings.ToLower(gene)) {
			qi.Genes = append(qi.Genes, gene)
			break
		}
	}

	for _, group := range k.cancers {
		matched := false
		for _, kw := range group.Keywords {
			if has(kw) {
				matched = true
				break
			}
		}
		if matched {
			qi.CancerTypes = append(qi.CancerTypes, group.Type)
			break
		}
	}

	if len(qi.Genes) == 0 {
		qi.Unrecognized = true
		qi.Reasoning = "keyword fallback: no known gene symbol in query"
		return qi
	}

	qi.QueryType = domain.QueryMutations
	for _, group := range k.kinds {
		for _, kw := range group.Keywords {
			if has(kw) {
				qi.QueryType = group.Kind
				break
			}
		}
		if qi.QueryType != domain.QueryMutations {
			break
		}
	}
	qi.Reasoning = "keyword fallback: matched " + qi.Genes[0]
	return qi
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
