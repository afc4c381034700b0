// Package textsim provides the pairwise string-similarity primitive used by
// idea deduplication, synthesis matching, and backlog validation.
//
// Ratio implements the longest-matching-block sequence comparison: the score
// is 2*M/T where M is the total length of matched blocks and T the combined
// length of both inputs. It is deterministic, reflexive (Ratio(x,x) == 1),
// and needs no state, so callers run it O(ideas x signals) per synthesis
// pass without caching.
package textsim

import "strings"

// Ratio returns a similarity score in [0,1] for two strings.
// Comparison is case-insensitive and rune-based.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	// Index positions of each rune in rb, ascending.
	b2j := make(map[rune][]int, len(rb))
	for j, r := range rb {
		b2j[r] = append(b2j[r], j)
	}

	matched := matchTotal(ra, rb, 0, len(ra), 0, len(rb), b2j)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// matchTotal sums the lengths of all matching blocks between a[alo:ahi] and
// b[blo:bhi]: find the longest common block, then recurse on the pieces
// before and after it.
func matchTotal(a, b []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) int {
	i, j, k := longestMatch(a, alo, ahi, blo, bhi, b2j)
	if k == 0 {
		return 0
	}
	return k +
		matchTotal(a, b, alo, i, blo, j, b2j) +
		matchTotal(a, b, i+k, ahi, j+k, bhi, b2j)
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] with
// alo <= i < i+k <= ahi and blo <= j < j+k <= bhi. Ties resolve to the
// earliest i, then the earliest j, so results are stable.
func longestMatch(a []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	// j2len[j] is the length of the matching block ending at a[i-1], b[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
