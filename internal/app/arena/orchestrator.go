package arena

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
)

type activeRun struct {
	competition *model.Competition
	cancel      context.CancelFunc
}

// Orchestrator fans the runner out across all participating agents, waits for
// every one of them to settle, and assembles a consistent result set even when
// individual runners fail. The active-competition map is owned here and
// guarded by a mutex so concurrent competitions do not race on it.
type Orchestrator struct {
	runner       *Runner
	registry     *agents.Registry
	competitions repository.CompetitionRepository // may be nil

	mu     sync.Mutex
	active map[string]*activeRun
}

func NewOrchestrator(runner *Runner, registry *agents.Registry, competitions repository.CompetitionRepository) *Orchestrator {
	return &Orchestrator{
		runner:       runner,
		registry:     registry,
		competitions: competitions,
		active:       make(map[string]*activeRun),
	}
}

// RunCompetition runs all agents concurrently against the challenge and
// returns the complete results. It waits for every agent to reach a terminal
// outcome; there is no early exit on first failure or first success.
func (o *Orchestrator) RunCompetition(ctx context.Context, competitionID string, challenge *model.Challenge, agentIDs []string, timeoutPerAgent time.Duration) (*model.CompetitionResults, error) {
	if len(agentIDs) == 0 {
		return nil, fmt.Errorf("no agents provided for competition: %w", common.ErrValidation)
	}
	seen := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		if seen[id] {
			return nil, fmt.Errorf("duplicate agent %s in competition: %w", id, common.ErrValidation)
		}
		seen[id] = true
	}

	log.Printf("Starting competition %s with %d agents on challenge %s", competitionID, len(agentIDs), challenge.ID)

	startedAt := time.Now().UTC()
	competition := &model.Competition{
		ID:             competitionID,
		ChallengeID:    challenge.ID,
		AgentIDs:       agentIDs,
		Status:         model.CompetitionRunning,
		TimeoutSeconds: int(timeoutPerAgent.Seconds()),
		CreatedAt:      startedAt,
		StartedAt:      &startedAt,
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.active[competitionID] = &activeRun{competition: competition, cancel: cancel}
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		delete(o.active, competitionID)
		o.mu.Unlock()
		// Coarse cleanup: the agent cache is purged wholesale after each
		// competition, not evicted per agent.
		o.registry.Clear()
	}()

	if err := o.saveCompetition(ctx, competition); err != nil {
		o.transition(competition, model.CompetitionCancelled)
		return nil, fmt.Errorf("competition %s failed: %w", competitionID, err)
	}

	// Fan out. Each runner is total (it cannot return an error), but a slot is
	// still synthesized if one somehow yields nothing, so the leaderboard
	// always has one entry per dispatched agent.
	submissions := make([]*model.Submission, len(agentIDs))
	var wg sync.WaitGroup
	for i, agentID := range agentIDs {
		wg.Add(1)
		go func(i int, agentID string) {
			defer wg.Done()
			submissions[i] = o.runner.Run(runCtx, agentID, competitionID, challenge, timeoutPerAgent)
		}(i, agentID)
	}
	wg.Wait()

	for i, s := range submissions {
		if s == nil {
			log.Printf("Agent %s produced no submission, synthesizing error entry", agentIDs[i])
			msg := "agent runner produced no result"
			submissions[i] = &model.Submission{
				ID:            uuid.NewString(),
				CompetitionID: competitionID,
				AgentID:       agentIDs[i],
				ChallengeID:   challenge.ID,
				Status:        model.SubmissionError,
				ErrorMessage:  &msg,
				TotalTests:    len(challenge.TestCases),
				CreatedAt:     time.Now().UTC(),
			}
		}
	}

	leaderboard := BuildLeaderboard(submissions)
	var winner *string
	if len(leaderboard) > 0 {
		winner = &leaderboard[0].AgentID
	}

	completedAt := time.Now().UTC()
	o.finalize(competition, completedAt, winner)
	if err := o.saveCompetition(ctx, competition); err != nil {
		return nil, fmt.Errorf("competition %s failed to finalize: %w", competitionID, err)
	}

	results := &model.CompetitionResults{
		CompetitionID: competitionID,
		Challenge:     challenge,
		Submissions:   submissions,
		Winner:        winner,
		Leaderboard:   leaderboard,
		StartedAt:     startedAt,
		CompletedAt:   completedAt,
		TotalDuration: completedAt.Sub(startedAt).Seconds(),
	}

	log.Printf("Competition %s %s. Winner: %v, duration: %.2fs",
		competitionID, competition.Status, winnerOrNone(winner), results.TotalDuration)
	return results, nil
}

// Cancel flips a running competition to cancelled, removes it from the active
// set and cancels its context so in-flight agent work is torn down. Returns
// false if the competition is not active.
func (o *Orchestrator) Cancel(ctx context.Context, competitionID string) bool {
	o.mu.Lock()
	run, ok := o.active[competitionID]
	if ok {
		delete(o.active, competitionID)
	}
	o.mu.Unlock()
	if !ok {
		log.Printf("Competition %s not found or not running, cannot cancel", competitionID)
		return false
	}

	o.transition(run.competition, model.CompetitionCancelled)
	run.cancel()
	if err := o.saveCompetition(ctx, run.competition); err != nil {
		log.Printf("Failed to save cancelled competition %s: %v", competitionID, err)
	}
	log.Printf("Cancelled competition %s", competitionID)
	return true
}

// Get returns the in-flight competition record, if any.
func (o *Orchestrator) Get(competitionID string) (*model.Competition, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	run, ok := o.active[competitionID]
	if !ok {
		return nil, false
	}
	cp := *run.competition
	return &cp, true
}

// ActiveCount returns the number of competitions currently running.
func (o *Orchestrator) ActiveCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active)
}

// CachedAgents returns the number of agent instances in the registry cache.
func (o *Orchestrator) CachedAgents() int {
	return o.registry.Size()
}

// transition applies a status change only if the state machine allows it;
// terminal states are never re-entered.
func (o *Orchestrator) transition(c *model.Competition, next model.CompetitionStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c.Status.CanTransitionTo(next) {
		c.Status = next
	}
}

// finalize marks the competition completed unless a concurrent cancel already
// made it terminal. All record writes happen under the same mutex as Cancel's
// transition so the two cannot race.
func (o *Orchestrator) finalize(c *model.Competition, completedAt time.Time, winner *string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c.Status.CanTransitionTo(model.CompetitionCompleted) {
		c.Status = model.CompetitionCompleted
		c.CompletedAt = &completedAt
		c.WinnerAgentID = winner
	}
}

func (o *Orchestrator) saveCompetition(ctx context.Context, c *model.Competition) error {
	if o.competitions == nil {
		return nil
	}
	return o.competitions.Update(ctx, c)
}

func winnerOrNone(winner *string) string {
	if winner == nil {
		return "none"
	}
	return *winner
}
