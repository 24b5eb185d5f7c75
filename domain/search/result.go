package search

import "github.com/helixml/pagevec/domain/page"

// Match is a page ranked by its cosine distance to a query.
type Match struct {
	page     page.Page
	distance float64
}

// NewMatch creates a new Match.
func NewMatch(p page.Page, distance float64) Match {
	return Match{page: p, distance: distance}
}

// Page returns the matched page.
func (m Match) Page() page.Page { return m.page }

// Distance returns the cosine distance, 0 for identical direction and 2 for
// opposite direction.
func (m Match) Distance() float64 { return m.distance }

// Similarity returns 1 - distance.
func (m Match) Similarity() float64 { return 1 - m.distance }

// SimilarityPercent returns the similarity as a percentage for display.
func (m Match) SimilarityPercent() float64 { return m.Similarity() * 100 }

// Outcome is the result of a search. A degraded outcome carries no matches
// and the storage failure that caused the degradation; it is not an error.
type Outcome struct {
	matches  []Match
	degraded bool
	cause    error
}

// NewOutcome creates a successful outcome, possibly with zero matches.
func NewOutcome(matches []Match) Outcome {
	cp := make([]Match, len(matches))
	copy(cp, matches)
	return Outcome{matches: cp}
}

// NewDegradedOutcome creates an empty outcome for a failed ranking scan.
func NewDegradedOutcome(cause error) Outcome {
	return Outcome{matches: []Match{}, degraded: true, cause: cause}
}

// Matches returns the ranked matches, closest first.
func (o Outcome) Matches() []Match {
	cp := make([]Match, len(o.matches))
	copy(cp, o.matches)
	return cp
}

// Len returns the number of matches.
func (o Outcome) Len() int { return len(o.matches) }

// Empty reports whether there are no matches.
func (o Outcome) Empty() bool { return len(o.matches) == 0 }

// Degraded reports whether the scan failed and the outcome was emptied.
func (o Outcome) Degraded() bool { return o.degraded }

// Cause returns the storage failure behind a degraded outcome.
func (o Outcome) Cause() error { return o.cause }
