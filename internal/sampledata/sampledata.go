// Package sampledata holds the static mutation records served when live
// cBioPortal data cannot be fetched.
package sampledata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbioportal-query-assistant/internal/domain"
)

// Display values for records that did not come from the live API.
const (
	SourceLabel       = "Sample Data (API unavailable)"
	DescriptionSuffix = " (Sample Data)"
)

//go:embed samples.json
var raw []byte

var (
	entries []domain.SampleEntry
	byKey   map[string]int
)

func init() {
	if err := json.Unmarshal(raw, &entries); err != nil {
		panic(fmt.Sprintf("sampledata: invalid embedded dataset: %v", err))
	}
	byKey = make(map[string]int, len(entries))
	for i, e := range entries {
		byKey[strings.ToLower(e.Gene)] = i
	}
}

// Lookup finds the sample entry for symbol, ignoring case. The returned
// entry owns its mutation slice.
func Lookup(symbol string) (domain.SampleEntry, bool) {
	i, ok := byKey[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return domain.SampleEntry{}, false
	}
	e := entries[i]
	e.Mutations = append([]domain.MutationRecord(nil), e.Mutations...)
	return e, true
}

// Genes lists the genes with sample records, in dataset order.
func Genes() []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Gene
	}
	return out
}
