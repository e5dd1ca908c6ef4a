// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package postore

// Ratio returns the gestalt (Ratcliff/Obershelp) similarity of a and b:
// 2*M/T where M is the number of characters in matching blocks and T the
// combined length. Matching blocks are found by taking the longest common
// substring (earliest in a, then earliest in b, on ties) and recursing on
// the unmatched text either side of it. Two empty strings score 1.0.
//
// The comparison is rune-wise and case-sensitive; callers fold case.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	i, j, k := longestMatch(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+k:], b[j+k:])
}

// longestMatch returns the start in a, start in b and length of the longest
// common substring. Only a strictly longer block replaces the current best,
// so the earliest block wins ties.
func longestMatch(a, b []rune) (int, int, int) {
	bestI, bestJ, bestK := 0, 0, 0
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestK {
				bestK = cur[j+1]
				bestI = i - bestK + 1
				bestJ = j - bestK + 1
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestK
}
