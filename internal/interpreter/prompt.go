package interpreter

import (
	"fmt"
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
	"github.com/cbioportal-query-assistant/internal/lexicon"
)

// SystemPrompt is the instruction text sent to every model backend. It is
// generated from the lexicon so the model is told about exactly the genes
// and cancer types the keyword interpreter recognizes.
var SystemPrompt = buildSystemPrompt()

func buildSystemPrompt() string {
	kinds := make([]string, len(domain.QueryTypes))
	for i, k := range domain.QueryTypes {
		kinds[i] = string(k)
	}

	var b strings.Builder
	b.WriteString("You are an expert in cancer genomics and bioinformatics. ")
	b.WriteString("Parse the user's natural language query about cancer genomics data and extract structured information.\n\n")
	b.WriteString("Return ONLY a JSON object with these exact fields:\n")
	b.WriteString("{\n")
	b.WriteString(`  "genes": ["GENE1", "GENE2"],` + "\n")
	b.WriteString(`  "cancer_types": ["cancer1"],` + "\n")
	fmt.Fprintf(&b, `  "query_type": "%s",`+"\n", strings.Join(kinds, "|"))
	b.WriteString(`  "filters": ["any specific filters mentioned"],` + "\n")
	b.WriteString(`  "confidence": 1-10,` + "\n")
	b.WriteString(`  "reasoning": "brief explanation"` + "\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Gene symbols must be uppercase official HUGO symbols; correct obvious misspellings.\n")
	b.WriteString("- An ambiguous family name such as BRCA means BRCA1.\n")
	b.WriteString("- If the query names only a cancer type, return an empty genes list.\n")
	b.WriteString("- If a gene does not exist, do not invent one; return an empty genes list and a low confidence.\n")
	b.WriteString("- Cancer types are lowercase single words.\n")
	b.WriteString("- confidence is a number from 1 (guess) to 10 (certain).\n\n")
	fmt.Fprintf(&b, "Common genes: %s\n", strings.Join(lexicon.Genes(), ", "))
	fmt.Fprintf(&b, "Common cancer types: %s\n", strings.Join(lexicon.CancerTypes(), ", "))
	return b.String()
}

// BuildPrompt combines the system instructions and a user query into one
// prompt for backends without a separate system role.
func BuildPrompt(query string) string {
	return SystemPrompt + "\nUser query: \"" + query + "\"\n\nJSON response:"
}
