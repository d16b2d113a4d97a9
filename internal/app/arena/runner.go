package arena

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/app/evaluator"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
)

// Runner executes exactly one agent against one challenge under a timeout.
// It never returns an error: every failure mode is converted into a terminal
// submission, which is the property the orchestrator's aggregation relies on.
type Runner struct {
	registry    *agents.Registry
	evaluator   evaluator.Evaluator
	submissions repository.SubmissionRepository // may be nil
}

func NewRunner(registry *agents.Registry, eval evaluator.Evaluator, submissions repository.SubmissionRepository) *Runner {
	return &Runner{registry: registry, evaluator: eval, submissions: submissions}
}

// Run produces a terminal submission for one agent. The timeout bounds the
// agent's solve call only; resolving the agent and evaluating its output are
// not charged against it, and the recorded execution time is the wall-clock
// duration of the solve call.
func (r *Runner) Run(ctx context.Context, agentID, competitionID string, challenge *model.Challenge, timeout time.Duration) (submission *model.Submission) {
	submission = &model.Submission{
		ID:            uuid.NewString(),
		CompetitionID: competitionID,
		AgentID:       agentID,
		ChallengeID:   challenge.ID,
		Status:        model.SubmissionPending,
		TotalTests:    len(challenge.TestCases),
		CreatedAt:     time.Now().UTC(),
	}

	// The final save must happen on every path, including panic recovery and a
	// cancelled parent context.
	defer func() {
		if rec := recover(); rec != nil {
			setError(submission, fmt.Sprintf("panic during agent execution: %v", rec))
		}
		r.saveSubmission(context.WithoutCancel(ctx), submission)
	}()

	submission.Status = model.SubmissionRunning
	r.saveSubmission(ctx, submission)

	agent, err := r.registry.Load(ctx, agentID)
	if err != nil {
		setError(submission, fmt.Sprintf("failed to load agent: %v", err))
		return submission
	}

	solveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	solution, err := agent.Solve(solveCtx, challenge)
	elapsed := time.Since(start).Seconds()
	submission.ExecutionTime = &elapsed

	if err != nil {
		if errors.Is(solveCtx.Err(), context.DeadlineExceeded) {
			submission.Status = model.SubmissionTimeout
			msg := fmt.Sprintf("execution timed out after %d seconds", int(timeout.Seconds()))
			submission.ErrorMessage = &msg
			log.Printf("Agent %s timed out after %s on competition %s", agentID, timeout, competitionID)
			return submission
		}
		setError(submission, fmt.Sprintf("execution error: %v", err))
		return submission
	}

	submission.Code = solution.Code
	submission.Attempts = solution.Attempts

	result, err := r.evaluator.RunTestCases(ctx, solution.Code, challenge.TestCases)
	if err != nil {
		setError(submission, fmt.Sprintf("evaluation error: %v", err))
		return submission
	}

	submission.TestsPassed = result.PassedTests
	submission.TotalTests = result.TotalTests
	submission.Score = Score(result.PassedTests, result.TotalTests, elapsed, solution.Attempts, challenge.Difficulty)

	if result.Passed {
		submission.Status = model.SubmissionPassed
	} else {
		submission.Status = model.SubmissionFailed
		msg := "tests failed"
		if result.ErrorMessage != nil && *result.ErrorMessage != "" {
			msg = *result.ErrorMessage
		}
		submission.ErrorMessage = &msg
	}

	log.Printf("Agent %s finished on competition %s: %s, score %d, tests %d/%d",
		agentID, competitionID, submission.Status, submission.Score, submission.TestsPassed, submission.TotalTests)
	return submission
}

func setError(s *model.Submission, msg string) {
	s.Status = model.SubmissionError
	s.ErrorMessage = &msg
	s.Score = 0
}

func (r *Runner) saveSubmission(ctx context.Context, s *model.Submission) {
	if r.submissions == nil {
		return
	}
	if err := r.submissions.Save(ctx, s); err != nil {
		log.Printf("Failed to save submission %s: %v", s.ID, err)
	}
}
