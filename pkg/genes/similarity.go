package genes

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/pmezard/go-difflib/difflib"
)

// Suggestion defaults.
const (
	DefaultCutoff         = 0.7
	DefaultMaxSuggestions = 3
)

// Ratio is the SequenceMatcher similarity of two symbols in [0,1].
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// EditDistance is the Levenshtein distance between two symbols.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

type match struct {
	symbol string
	ratio  float64
	near   bool
	order  int
}

// CloseMatches returns up to n candidates similar to word. A candidate
// qualifies when its ratio reaches cutoff or it is one edit away. Candidates
// one edit away rank first, then by ratio, then by their position in
// candidates. The word itself is never returned.
func CloseMatches(word string, candidates []string, n int, cutoff float64) []string {
	if n <= 0 || word == "" {
		return nil
	}

	wordSeq := strings.Split(word, "")
	matcher := difflib.NewMatcher(nil, wordSeq)

	var matches []match
	for i, c := range candidates {
		if c == word || c == "" {
			continue
		}
		near := EditDistance(c, word) <= 1

		matcher.SetSeq1(strings.Split(c, ""))
		if !near && (matcher.RealQuickRatio() < cutoff || matcher.QuickRatio() < cutoff) {
			continue
		}
		ratio := matcher.Ratio()
		if !near && ratio < cutoff {
			continue
		}
		matches = append(matches, match{symbol: c, ratio: ratio, near: near, order: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.near != b.near {
			return a.near
		}
		if a.ratio != b.ratio {
			return a.ratio > b.ratio
		}
		return a.order < b.order
	})

	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.symbol
	}
	return out
}
