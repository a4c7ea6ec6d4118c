package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

type librarySimilarity struct {
	jw    *metrics.JaroWinkler
	indel *metrics.Levenshtein
}

func newLibrarySimilarity() *librarySimilarity {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	// A substitution costs as much as a deletion plus an insertion, which turns the
	// Levenshtein distance into an indel distance.
	indel := metrics.NewLevenshtein()
	indel.CaseSensitive = false
	indel.InsertCost = 1
	indel.DeleteCost = 1
	indel.ReplaceCost = 2

	return &librarySimilarity{jw: jw, indel: indel}
}

func (l *librarySimilarity) edit(a, b string) float64 {
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, l.jw)
}

// ratio is the normalized indel similarity of a and b in [0,100].
func (l *librarySimilarity) ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(l.indel.Distance(a, b))/float64(total))
}

// tokens computes a token-set ratio: both titles are reduced to their sorted unique words,
// the shared words are compared with each side's full set and the best ratio wins.
func (l *librarySimilarity) tokens(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var shared, onlyA, onlyB []string
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared = append(shared, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if _, ok := setA[w]; !ok {
			onlyB = append(onlyB, w)
		}
	}

	if len(shared) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := joinSorted(shared)
	combinedA := strings.TrimSpace(sect + " " + joinSorted(onlyA))
	combinedB := strings.TrimSpace(sect + " " + joinSorted(onlyB))

	best := l.ratio(combinedA, combinedB)
	if sect != "" {
		best = max(best, l.ratio(sect, combinedA), l.ratio(sect, combinedB))
	}
	return best
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

func joinSorted(words []string) string {
	sort.Strings(words)
	return strings.Join(words, " ")
}
