package model

import "time"

type LeaderboardEntry struct {
	Rank          int              `json:"rank"`
	AgentID       string           `json:"agent_id"`
	Score         int              `json:"score"`
	Status        SubmissionStatus `json:"status"`
	TestsPassed   int              `json:"tests_passed"`
	TotalTests    int              `json:"total_tests"`
	ExecutionTime *float64         `json:"execution_time,omitempty"`
	Attempts      int              `json:"attempts"`
}

// CompetitionResults is a read-only view assembled once a competition reaches a
// terminal state. It is derived from submissions, not separately persisted.
type CompetitionResults struct {
	CompetitionID string             `json:"competition_id"`
	Challenge     *Challenge         `json:"challenge"`
	Submissions   []*Submission      `json:"submissions"`
	Winner        *string            `json:"winner,omitempty"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	TotalDuration float64            `json:"total_duration"` // seconds
}
