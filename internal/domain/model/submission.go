package model

import "time"

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionRunning SubmissionStatus = "running"
	SubmissionPassed  SubmissionStatus = "passed"
	SubmissionFailed  SubmissionStatus = "failed"
	SubmissionTimeout SubmissionStatus = "timeout"
	SubmissionError   SubmissionStatus = "error"
)

// IsTerminal reports whether the submission has reached a final state.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionPassed, SubmissionFailed, SubmissionTimeout, SubmissionError:
		return true
	}
	return false
}

// Submission is one agent's outcome for one competition. It is created in
// pending state, mutated in place by the runner, and immutable once terminal.
type Submission struct {
	ID            string           `json:"id"`
	CompetitionID string           `json:"competition_id"`
	AgentID       string           `json:"agent_id"`
	ChallengeID   string           `json:"challenge_id"`
	Code          string           `json:"code"` // empty on failure
	Status        SubmissionStatus `json:"status"`
	Score         int              `json:"score"`
	TestsPassed   int              `json:"tests_passed"`
	TotalTests    int              `json:"total_tests"`
	ExecutionTime *float64         `json:"execution_time,omitempty"` // seconds
	ErrorMessage  *string          `json:"error_message,omitempty"`
	Attempts      int              `json:"attempts"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TestResult is what the test evaluator reports for one piece of generated code.
type TestResult struct {
	Passed        bool          `json:"passed"`
	TotalTests    int           `json:"total_tests"`
	PassedTests   int           `json:"passed_tests"`
	FailedTests   []TestFailure `json:"failed_tests,omitempty"`
	ErrorMessage  *string       `json:"error_message,omitempty"`
	ExecutionTime float64       `json:"execution_time"` // seconds
}

type TestFailure struct {
	TestNumber int    `json:"test_number"`
	Input      string `json:"input"`
	Expected   string `json:"expected"`
	Actual     string `json:"actual"`
	Error      string `json:"error,omitempty"`
}
