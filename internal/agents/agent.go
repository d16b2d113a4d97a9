package agents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/devfork/arena/internal/domain/model"
)

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrAgentInactive = errors.New("agent is inactive")
)

// Agent turns a challenge into code. Implementations must be safe to call
// concurrently and must honor context cancellation, so a timed-out run is
// actually torn down instead of leaking a detached request.
type Agent interface {
	Name() string
	Solve(ctx context.Context, challenge *model.Challenge) (*Solution, error)
}

// Solution is the outcome of one Solve call. Attempts counts the agent's
// internal generate-test-refine iterations, not orchestrator retries (the
// orchestrator never retries).
type Solution struct {
	Code     string
	Attempts int
}

type generateFunc func(ctx context.Context, systemPrompt *string, prompt string) (string, error)

// solveChallenge is the iterate-on-failure loop shared by all providers:
// generate a solution, run a cheap sanity check, and refine with the failure
// details until maxIterations is exhausted.
func solveChallenge(ctx context.Context, record *model.AgentRecord, challenge *model.Challenge, generate generateFunc) (*Solution, error) {
	prompt := FormatChallengePrompt(challenge)

	for attempt := 1; attempt <= record.MaxIterations; attempt++ {
		raw, err := generate(ctx, record.SystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		code := StripCodeFences(raw)

		problem := validateSolution(code)
		if problem == "" {
			log.Printf("Agent %s solved challenge %s in %d attempt(s)", record.Name, challenge.ID, attempt)
			return &Solution{Code: code, Attempts: attempt}, nil
		}

		if attempt < record.MaxIterations {
			log.Printf("Agent %s attempt %d rejected (%s), iterating", record.Name, attempt, problem)
			prompt = FormatIterationPrompt(challenge, code, problem)
		}
	}

	return nil, fmt.Errorf("unable to solve challenge after %d attempts", record.MaxIterations)
}

// validateSolution is a cheap static check on generated code. Actual test
// execution happens in the evaluator; this only rejects output that is
// obviously not a program, which is the common LLM failure mode worth a retry.
func validateSolution(code string) string {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) < 10 {
		return "generated code is empty or too short"
	}
	if !strings.Contains(trimmed, "def ") && !strings.Contains(trimmed, "print(") {
		return "generated output does not look like a Python program"
	}
	return ""
}

// StripCodeFences removes a surrounding markdown code block, which models emit
// despite being told not to.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line (```python).
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
