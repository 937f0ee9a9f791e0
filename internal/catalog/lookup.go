package catalog

import (
	"sort"
	"strings"
)

// Outcome classifies a lookup result.
type Outcome int

const (
	NotFound Outcome = iota
	Hit
	Ambiguous
)

// Candidate is one possible match offered for disambiguation.
type Candidate struct {
	Code  string
	Movie Movie
}

// Resolution is the result of resolving a free-text query against the
// catalog. Movie is set for Hit; Candidates for Ambiguous.
type Resolution struct {
	Outcome    Outcome
	Movie      Movie
	Candidates []Candidate
}

// Resolve matches a query against the catalog, first by exact code and
// then by case-insensitive substring of the display name. An exact code
// match always short-circuits the name search. Disambiguation candidates
// are ordered by display name ascending, case-insensitive.
func Resolve(query string, all map[string]Movie) Resolution {
	q := NormalizeCode(query)
	if q == "" {
		return Resolution{Outcome: NotFound}
	}

	if m, ok := all[q]; ok {
		m.Code = q
		return Resolution{Outcome: Hit, Movie: m}
	}

	var matches []Candidate
	for code, m := range all {
		if strings.Contains(strings.ToLower(m.Name), q) {
			m.Code = code
			matches = append(matches, Candidate{Code: code, Movie: m})
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{Outcome: NotFound}
	case 1:
		return Resolution{Outcome: Hit, Movie: matches[0].Movie}
	default:
		sort.Slice(matches, func(i, j int) bool {
			a := strings.ToLower(matches[i].Movie.Name)
			b := strings.ToLower(matches[j].Movie.Name)
			if a != b {
				return a < b
			}
			return matches[i].Code < matches[j].Code
		})
		return Resolution{Outcome: Ambiguous, Candidates: matches}
	}
}
