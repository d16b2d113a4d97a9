package arena

import (
	"math"
	"sort"

	"github.com/devfork/arena/internal/domain/model"
)

// BuildLeaderboard ranks submissions by score descending, then execution time
// ascending; a missing execution time sorts last. The sort is stable, so
// remaining ties keep dispatch order. Ranks are strictly sequential 1..N:
// every dispatched agent gets exactly one entry, failures included.
func BuildLeaderboard(submissions []*model.Submission) []model.LeaderboardEntry {
	entries := make([]model.LeaderboardEntry, 0, len(submissions))
	for _, s := range submissions {
		entries = append(entries, model.LeaderboardEntry{
			AgentID:       s.AgentID,
			Score:         s.Score,
			Status:        s.Status,
			TestsPassed:   s.TestsPassed,
			TotalTests:    s.TotalTests,
			ExecutionTime: s.ExecutionTime,
			Attempts:      s.Attempts,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return executionTimeOrInf(entries[i]) < executionTimeOrInf(entries[j])
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func executionTimeOrInf(e model.LeaderboardEntry) float64 {
	if e.ExecutionTime == nil {
		return math.Inf(1)
	}
	return *e.ExecutionTime
}
