package app

import (
	"sort"

	"quiz-results-service/internal/domain"
)

// precedes reports whether a ranks strictly ahead of b: score desc, time taken
// asc, submitted at asc.
func precedes(a, b domain.Result) bool {
	if c := a.Score.Cmp(b.Score); c != 0 {
		return c > 0
	}
	if a.TimeTaken != b.TimeTaken {
		return a.TimeTaken < b.TimeTaken
	}
	return a.SubmittedAt.Before(b.SubmittedAt)
}

func fullyTied(a, b domain.Result) bool {
	return !precedes(a, b) && !precedes(b, a)
}

// RankResults orders results for one quiz and assigns ranks. A rank is 1 plus
// the number of results strictly ahead, so only fully tied results share a rank.
func RankResults(results []domain.Result) []domain.RankedResult {
	sorted := make([]domain.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		if precedes(sorted[i], sorted[j]) {
			return true
		}
		if precedes(sorted[j], sorted[i]) {
			return false
		}
		// full tie: stable output order only, rank is shared
		return sorted[i].UserID < sorted[j].UserID
	})

	ranked := make([]domain.RankedResult, len(sorted))
	for i, r := range sorted {
		rank := i + 1
		if i > 0 && fullyTied(sorted[i-1], r) {
			rank = ranked[i-1].Rank
		}
		ranked[i] = domain.RankedResult{Result: r, Rank: rank}
	}
	return ranked
}

// rankOf returns the rank of target among results, counting only results that
// strictly precede it.
func rankOf(results []domain.Result, target domain.Result) int {
	ahead := 0
	for _, r := range results {
		if r.ID != target.ID && precedes(r, target) {
			ahead++
		}
	}
	return ahead + 1
}
