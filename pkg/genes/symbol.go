// Package genes holds gene symbol rules and the string similarity used to
// suggest corrections for misspelled symbols.
package genes

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
)

var (
	// Standard gene symbol pattern (HUGO Gene Nomenclature Committee standards)
	standardGenePattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]*[A-Z0-9]$`)

	singleLetterGenePattern = regexp.MustCompile(`^[A-Z]$`)

	// Pseudogenes, antisense and divergent transcripts
	complexGenePattern = regexp.MustCompile(`^[A-Z][A-Z0-9-]*[A-Z0-9](P\d+|AS\d+|DT|IT\d+|NB)?$`)

	entrezGeneIDPattern = regexp.MustCompile(`^[1-9]\d{0,9}$`)
)

// MaxSymbolLength is the longest symbol accepted by ValidateSymbol.
const MaxSymbolLength = 15

// Normalize trims and uppercases a symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeAll normalizes symbols, dropping blanks and duplicates while
// keeping first-seen order.
func NormalizeAll(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		n := Normalize(s)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// ValidateSymbol checks an already normalized symbol against HUGO format rules.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return domain.NewValidationError("gene_symbol", "Gene symbol is required", symbol)
	}

	if symbol != strings.ToUpper(symbol) {
		return domain.NewValidationError("gene_symbol",
			"Gene symbol must be in uppercase letters according to HUGO standards",
			symbol)
	}

	if !isValidFormat(symbol) {
		return domain.NewValidationError("gene_symbol",
			"Gene symbol must follow HUGO nomenclature standards (uppercase letters, numbers, and hyphens only)",
			symbol)
	}

	if strings.Contains(symbol, "--") {
		return domain.NewValidationError("gene_symbol",
			"Gene symbol cannot contain consecutive hyphens",
			symbol)
	}

	if len(symbol) > MaxSymbolLength {
		return domain.NewValidationError("gene_symbol",
			"Gene symbol should not exceed 15 characters",
			symbol)
	}

	return nil
}

// ParseEntrezID parses a positive Entrez gene id given as digits, optionally
// JSON-quoted.
func ParseEntrezID(geneID string) (int, error) {
	geneID = strings.Trim(strings.TrimSpace(geneID), `"`)
	if !entrezGeneIDPattern.MatchString(geneID) {
		return 0, domain.NewValidationError("entrez_gene_id",
			"Gene ID must be a positive Entrez identifier",
			geneID)
	}
	id, err := strconv.Atoi(geneID)
	if err != nil {
		return 0, domain.NewValidationError("entrez_gene_id", "Gene ID is out of range", geneID)
	}
	return id, nil
}

func isValidFormat(symbol string) bool {
	return singleLetterGenePattern.MatchString(symbol) ||
		standardGenePattern.MatchString(symbol) ||
		complexGenePattern.MatchString(symbol)
}
