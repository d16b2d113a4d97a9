package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/app/evaluator"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	registry     *agents.Registry
	competitions *repository.MemoryCompetitionRepository
	submissions  *repository.MemorySubmissionRepository
}

func newOrchestratorFixture(t *testing.T, eval evaluator.Evaluator, scripted map[string]*scriptedAgent) *orchestratorFixture {
	t.Helper()
	agentRepo := repository.NewMemoryAgentRepository()
	for id, a := range scripted {
		record := &model.AgentRecord{
			ID: id, Name: a.name, Provider: "openai", ModelName: "test-model",
			MaxIterations: 3, IsActive: true, CreatedAt: time.Now(),
		}
		if err := agentRepo.Create(context.Background(), record); err != nil {
			t.Fatalf("seed agent %s: %v", id, err)
		}
	}
	factory := func(record *model.AgentRecord) (agents.Agent, error) {
		return scripted[record.ID], nil
	}
	registry := agents.NewRegistry(agentRepo, factory)
	submissions := repository.NewMemorySubmissionRepository()
	competitions := repository.NewMemoryCompetitionRepository()
	runner := NewRunner(registry, eval, submissions)
	return &orchestratorFixture{
		orchestrator: NewOrchestrator(runner, registry, competitions),
		registry:     registry,
		competitions: competitions,
		submissions:  submissions,
	}
}

// seedCompetition creates the stored record the orchestrator will update.
func (f *orchestratorFixture) seedCompetition(t *testing.T, id string) {
	t.Helper()
	err := f.competitions.Create(context.Background(), &model.Competition{
		ID: id, ChallengeID: "ch-1", Status: model.CompetitionPending, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed competition: %v", err)
	}
}

func TestRunCompetitionEveryAgentGetsAnEntry(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, map[string]*scriptedAgent{
		"fast":   {name: "fast", code: "print(input())", attempts: 1},
		"broken": {name: "broken", err: errors.New("api down")},
		"bomb":   {name: "bomb", panicMsg: "boom"},
	})
	f.seedCompetition(t, "comp-1")

	results, err := f.orchestrator.RunCompetition(context.Background(), "comp-1",
		testChallenge(3), []string{"fast", "broken", "bomb"}, time.Minute)
	if err != nil {
		t.Fatalf("RunCompetition: %v", err)
	}

	if len(results.Leaderboard) != 3 {
		t.Fatalf("got %d leaderboard entries, want 3: failures still get ranked", len(results.Leaderboard))
	}
	if len(results.Submissions) != 3 {
		t.Fatalf("got %d submissions, want 3", len(results.Submissions))
	}
	if results.Winner == nil || *results.Winner != "fast" {
		t.Errorf("winner = %v, want fast", results.Winner)
	}
	if results.Leaderboard[0].Rank != 1 || results.Leaderboard[0].AgentID != "fast" {
		t.Errorf("top entry = %+v, want rank 1 for fast", results.Leaderboard[0])
	}

	statuses := map[string]model.SubmissionStatus{}
	for _, s := range results.Submissions {
		statuses[s.AgentID] = s.Status
		if !s.Status.IsTerminal() {
			t.Errorf("agent %s submission left non-terminal: %s", s.AgentID, s.Status)
		}
	}
	if statuses["fast"] != model.SubmissionPassed {
		t.Errorf("fast status = %s, want passed", statuses["fast"])
	}
	if statuses["broken"] != model.SubmissionError {
		t.Errorf("broken status = %s, want error", statuses["broken"])
	}
	if statuses["bomb"] != model.SubmissionError {
		t.Errorf("bomb status = %s, want error", statuses["bomb"])
	}
}

func TestRunCompetitionTimeoutIsolation(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, map[string]*scriptedAgent{
		"quick": {name: "quick", code: "print(input())", attempts: 1},
		"stuck": {name: "stuck", delay: time.Second},
	})
	f.seedCompetition(t, "comp-1")

	start := time.Now()
	results, err := f.orchestrator.RunCompetition(context.Background(), "comp-1",
		testChallenge(3), []string{"quick", "stuck"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("RunCompetition: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("competition took %s, timeouts did not cut the slow agent off", elapsed)
	}

	var quick, stuck *model.Submission
	for _, s := range results.Submissions {
		switch s.AgentID {
		case "quick":
			quick = s
		case "stuck":
			stuck = s
		}
	}
	if quick == nil || quick.Status != model.SubmissionPassed {
		t.Errorf("quick agent was affected by the slow one: %+v", quick)
	}
	if stuck == nil || stuck.Status != model.SubmissionTimeout {
		t.Errorf("stuck agent status: %+v, want timeout", stuck)
	}
}

func TestRunCompetitionPersistsCompletedState(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, map[string]*scriptedAgent{
		"solo": {name: "solo", code: "print(input())", attempts: 1},
		"pair": {name: "pair", code: "print(input())", attempts: 2},
	})
	f.seedCompetition(t, "comp-1")

	results, err := f.orchestrator.RunCompetition(context.Background(), "comp-1",
		testChallenge(3), []string{"solo", "pair"}, time.Minute)
	if err != nil {
		t.Fatalf("RunCompetition: %v", err)
	}

	stored, err := f.competitions.FindByID(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("load competition: %v", err)
	}
	if stored.Status != model.CompetitionCompleted {
		t.Errorf("stored status = %s, want completed", stored.Status)
	}
	if stored.WinnerAgentID == nil || *stored.WinnerAgentID != *results.Winner {
		t.Errorf("stored winner = %v, results winner = %v", stored.WinnerAgentID, results.Winner)
	}
	if stored.StartedAt == nil || stored.CompletedAt == nil {
		t.Error("stored competition missing timestamps")
	}
	if results.TotalDuration < 0 {
		t.Errorf("total duration = %f, want >= 0", results.TotalDuration)
	}
}

func TestRunCompetitionRejectsBadAgentLists(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, nil)

	_, err := f.orchestrator.RunCompetition(context.Background(), "comp-1", testChallenge(1), nil, time.Minute)
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("empty agent list: err = %v, want validation error", err)
	}

	_, err = f.orchestrator.RunCompetition(context.Background(), "comp-1",
		testChallenge(1), []string{"a", "a"}, time.Minute)
	if !errors.Is(err, common.ErrValidation) {
		t.Errorf("duplicate agents: err = %v, want validation error", err)
	}
}

func TestRunCompetitionClearsRegistry(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, map[string]*scriptedAgent{
		"solo": {name: "solo", code: "print(input())", attempts: 1},
	})
	f.seedCompetition(t, "comp-1")

	_, err := f.orchestrator.RunCompetition(context.Background(), "comp-1",
		testChallenge(1), []string{"solo"}, time.Minute)
	if err != nil {
		t.Fatalf("RunCompetition: %v", err)
	}
	if f.registry.Size() != 0 {
		t.Errorf("registry holds %d agents after the competition, want 0", f.registry.Size())
	}
	if f.orchestrator.ActiveCount() != 0 {
		t.Errorf("active count = %d after completion, want 0", f.orchestrator.ActiveCount())
	}
}

func TestCancelTearsDownRunningCompetition(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, map[string]*scriptedAgent{
		"slow-1": {name: "slow-1", delay: 10 * time.Second},
		"slow-2": {name: "slow-2", delay: 10 * time.Second},
	})
	f.seedCompetition(t, "comp-1")

	done := make(chan *model.CompetitionResults, 1)
	go func() {
		results, err := f.orchestrator.RunCompetition(context.Background(), "comp-1",
			testChallenge(1), []string{"slow-1", "slow-2"}, time.Minute)
		if err != nil {
			t.Errorf("RunCompetition: %v", err)
		}
		done <- results
	}()

	// Wait for the run to register itself, then cancel it.
	deadline := time.Now().Add(2 * time.Second)
	for f.orchestrator.ActiveCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("competition never became active")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !f.orchestrator.Cancel(context.Background(), "comp-1") {
		t.Fatal("Cancel returned false for a running competition")
	}

	select {
	case results := <-done:
		if results == nil {
			t.Fatal("no results after cancel")
		}
		for _, s := range results.Submissions {
			if !s.Status.IsTerminal() {
				t.Errorf("submission for %s left non-terminal after cancel: %s", s.AgentID, s.Status)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not tear down in-flight agent work")
	}

	stored, err := f.competitions.FindByID(context.Background(), "comp-1")
	if err != nil {
		t.Fatalf("load competition: %v", err)
	}
	if stored.Status != model.CompetitionCancelled {
		t.Errorf("stored status = %s, want cancelled (terminal states are sticky)", stored.Status)
	}
}

func TestCancelUnknownCompetition(t *testing.T) {
	f := newOrchestratorFixture(t, &evaluator.Mock{PassRatio: 1}, nil)
	if f.orchestrator.Cancel(context.Background(), "nope") {
		t.Error("Cancel returned true for an unknown competition")
	}
}
