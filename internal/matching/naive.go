package matching

type naiveSimilarity struct{}

// edit is the Ratcliff/Obershelp ratio 2*M/T, where M counts characters in matching blocks
// found by repeatedly taking the longest common substring.
func (naiveSimilarity) edit(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingChars(ra, rb)) / float64(total)
}

// tokens is the share of searched words found in the candidate, in [0,100].
func (naiveSimilarity) tokens(a, b string) float64 {
	searched := wordSet(a)
	if len(searched) == 0 {
		return 0
	}
	found := wordSet(b)

	shared := 0
	for w := range searched {
		if _, ok := found[w]; ok {
			shared++
		}
	}
	return 100 * float64(shared) / float64(len(searched))
}

func matchingChars(a, b []rune) int {
	i, j, size := longestCommon(a, b)
	if size == 0 {
		return 0
	}
	return size + matchingChars(a[:i], b[:j]) + matchingChars(a[i+size:], b[j+size:])
}

// longestCommon returns the start offsets and length of the earliest longest common substring.
func longestCommon(a, b []rune) (int, int, int) {
	bestI, bestJ, bestSize := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > bestSize {
					bestI, bestJ, bestSize = i-cur[j], j-cur[j], cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestSize
}
