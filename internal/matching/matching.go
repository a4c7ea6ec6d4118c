// package matching decides whether a catalog hit plausibly corresponds to a parsed title.
//
// Two strategies share one decision procedure and differ only in their similarity primitives:
// "library" uses Jaro-Winkler and a token-set ratio built on github.com/adrg/strutil metrics,
// "naive" uses a matching-blocks ratio and a plain word-set overlap.
package matching

import (
	"fmt"
	"strings"
)

const (
	// EditThreshold is the minimum edit similarity in [0,1] for a lenient match.
	EditThreshold = 0.90
	// TokenThreshold is the minimum token overlap in [0,100] for a lenient match.
	TokenThreshold = 95.0
	// StrictThreshold is the minimum edit similarity for second-pass matches. There is no token alternative.
	StrictThreshold = 0.92
)

// Scorer accepts or rejects a candidate for a search hypothesis.
type Scorer interface {
	// Match gates on the artist, then accepts when either title similarity passes.
	Match(searchedArtist, searchedTrack, foundArtist, foundTrack string) bool
	// StrictMatch gates on the artist, then requires edit similarity >= [StrictThreshold].
	// The gate applies even though second-pass queries already carry an artist: filter;
	// the catalog treats that filter as a hint, not a constraint.
	StrictMatch(searchedArtist, searchedTrack, foundArtist, foundTrack string) bool
	// Scores returns both similarity values for logging.
	Scores(searchedTrack, foundTrack string) (edit, token float64)
	Name() string
}

// similarity supplies the two primitives a strategy is made of.
type similarity interface {
	edit(a, b string) float64
	tokens(a, b string) float64
}

type scorer struct {
	name string
	sim  similarity
}

// New returns the scorer for strategy, either "library" or "naive".
func New(strategy string) (Scorer, error) {
	switch strategy {
	case "", "library":
		return NewLibraryScorer(), nil
	case "naive":
		return NewNaiveScorer(), nil
	default:
		return nil, fmt.Errorf("unknown scorer strategy %q", strategy)
	}
}

// NewLibraryScorer returns the strutil-backed scorer.
func NewLibraryScorer() Scorer {
	return &scorer{name: "library", sim: newLibrarySimilarity()}
}

// NewNaiveScorer returns the dependency-free scorer.
func NewNaiveScorer() Scorer {
	return &scorer{name: "naive", sim: naiveSimilarity{}}
}

func (s *scorer) Name() string { return s.name }

func (s *scorer) Match(searchedArtist, searchedTrack, foundArtist, foundTrack string) bool {
	if !artistGate(searchedArtist, foundArtist) {
		return false
	}
	edit, token := s.Scores(searchedTrack, foundTrack)
	return edit >= EditThreshold || token >= TokenThreshold
}

func (s *scorer) StrictMatch(searchedArtist, searchedTrack, foundArtist, foundTrack string) bool {
	if !artistGate(searchedArtist, foundArtist) {
		return false
	}
	return s.sim.edit(clean(searchedTrack), clean(foundTrack)) >= StrictThreshold
}

func (s *scorer) Scores(searchedTrack, foundTrack string) (float64, float64) {
	a, b := clean(searchedTrack), clean(foundTrack)
	return s.sim.edit(a, b), s.sim.tokens(a, b)
}

// artistGate requires every searched token to appear inside the found artist. An empty search passes.
func artistGate(searched, found string) bool {
	found = clean(found)
	for _, word := range strings.Fields(clean(searched)) {
		if !strings.Contains(found, word) {
			return false
		}
	}
	return true
}

func clean(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
