package model

import "time"

type CompetitionStatus string

const (
	CompetitionPending   CompetitionStatus = "pending"
	CompetitionRunning   CompetitionStatus = "running"
	CompetitionCompleted CompetitionStatus = "completed"
	CompetitionCancelled CompetitionStatus = "cancelled"
	CompetitionFailed    CompetitionStatus = "failed"
)

// IsTerminal reports whether the status is a sink: no further transitions allowed.
func (s CompetitionStatus) IsTerminal() bool {
	switch s {
	case CompetitionCompleted, CompetitionCancelled, CompetitionFailed:
		return true
	}
	return false
}

// CanTransitionTo enforces the pending -> running -> terminal state machine.
// Status never moves backward and never leaves a terminal state.
func (s CompetitionStatus) CanTransitionTo(next CompetitionStatus) bool {
	switch s {
	case CompetitionPending:
		return next == CompetitionRunning || next == CompetitionCancelled || next == CompetitionFailed
	case CompetitionRunning:
		return next.IsTerminal()
	}
	return false
}

// Competition is one batch run of multiple agents against one challenge.
type Competition struct {
	ID             string            `json:"id"`
	ChallengeID    string            `json:"challenge_id"`
	AgentIDs       []string          `json:"agent_ids"`
	Status         CompetitionStatus `json:"status"`
	WinnerAgentID  *string           `json:"winner_agent_id,omitempty"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	TimeoutSeconds int               `json:"timeout_seconds"` // per agent
	CreatedAt      time.Time         `json:"created_at"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}
