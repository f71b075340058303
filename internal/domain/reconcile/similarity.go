package reconcile

import "strings"

// Similarity returns a longest-common-subsequence ratio of the two strings in
// [0,1], computed over lower-cased, trimmed input. The ratio is taken at both
// character and whitespace-token granularity and the larger wins, so "les
// paul" vs "les paul standard" scores on the shared words rather than being
// punished for the extra qualifier. Empty strings never contribute: if either
// side is empty the ratio is 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	charRatio := lcsRatio(strings.Split(a, ""), strings.Split(b, ""))
	tokenRatio := lcsRatio(strings.Fields(a), strings.Fields(b))
	if tokenRatio > charRatio {
		return tokenRatio
	}
	return charRatio
}

// lcsRatio is 2*LCS/(len(a)+len(b)) over the given element sequences
func lcsRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := lcsLength(a, b)
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

// lcsLength computes the longest common subsequence length with a rolling
// two-row table.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}
