package parser

// Suggestions returns every registered id within Levenshtein distance 3 of
// want, closest first. Used to annotate "unknown node type" errors with
// "did you mean" candidates.
func Suggestions(want string, candidates []string) []string {
	const maxDistance = 3

	type scored struct {
		id   string
		dist int
	}
	var scoredCandidates []scored
	for _, c := range candidates {
		d := levenshtein(want, c)
		if d <= maxDistance {
			scoredCandidates = append(scoredCandidates, scored{id: c, dist: d})
		}
	}
	// stable insertion sort by distance, then lexicographically; the
	// candidate lists here are small (node catalogs), so O(n^2) is fine.
	for i := 1; i < len(scoredCandidates); i++ {
		j := i
		for j > 0 && less(scoredCandidates[j], scoredCandidates[j-1]) {
			scoredCandidates[j], scoredCandidates[j-1] = scoredCandidates[j-1], scoredCandidates[j]
			j--
		}
	}

	out := make([]string, len(scoredCandidates))
	for i, s := range scoredCandidates {
		out[i] = s.id
	}
	return out
}

func less(a, b struct {
	id   string
	dist int
}) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.id < b.id
}

// levenshtein computes the edit distance between a and b using the
// classic dynamic-programming recurrence with a single rolling row.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
