package catalog

import (
	"errors"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/pkg/genes"
)

// Validator checks gene symbols against a catalog and suggests corrections.
type Validator struct {
	catalog        *Catalog
	cutoff         float64
	maxSuggestions int
}

// NewValidator creates a validator over catalog.
func NewValidator(catalog *Catalog) *Validator {
	return &Validator{
		catalog:        catalog,
		cutoff:         genes.DefaultCutoff,
		maxSuggestions: genes.DefaultMaxSuggestions,
	}
}

// Validate partitions symbols into valid and invalid. Input is trimmed,
// uppercased and de-duplicated first. Catalog membership decides validity;
// an invalid symbol that also breaks HUGO format rules gets a format error.
// Each invalid symbol gets up to three catalog suggestions.
func (v *Validator) Validate(symbols []string) domain.ValidationReport {
	report := domain.ValidationReport{
		Valid:       []string{},
		Invalid:     []string{},
		Suggestions: map[string][]string{},
	}

	normalized := genes.NormalizeAll(symbols)
	if len(normalized) == 0 {
		return report
	}

	var candidates []string
	for _, symbol := range normalized {
		if _, ok := v.catalog.Lookup(symbol); ok {
			report.Valid = append(report.Valid, symbol)
			continue
		}

		report.Invalid = append(report.Invalid, symbol)
		var verr *domain.ValidationError
		if err := genes.ValidateSymbol(symbol); errors.As(err, &verr) {
			if report.FormatErrors == nil {
				report.FormatErrors = make(map[string]string)
			}
			report.FormatErrors[symbol] = verr.Message
		}
		if candidates == nil {
			candidates = v.catalog.Symbols()
		}
		if s := genes.CloseMatches(symbol, candidates, v.maxSuggestions, v.cutoff); len(s) > 0 {
			report.Suggestions[symbol] = s
		}
	}

	return report
}

// ResolveID returns the Entrez gene id recorded for symbol.
func (v *Validator) ResolveID(symbol string) (int, bool) {
	e, ok := v.catalog.Lookup(symbol)
	if !ok || e.EntrezGeneID == 0 {
		return 0, false
	}
	return e.EntrezGeneID, true
}
