package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/devfork/arena/internal/app/arena"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MinAgentsPerCompetition is the smallest field a competition may have. A
// single-agent run is a benchmark, not a competition.
const MinAgentsPerCompetition = 2

// CompetitionJob is the payload pushed onto the start queue for the worker.
type CompetitionJob struct {
	CompetitionID string `json:"competition_id"`
}

// StartReceipt is returned when a competition is accepted for execution.
type StartReceipt struct {
	CompetitionID           string                  `json:"competition_id"`
	Status                  model.CompetitionStatus `json:"status"`
	ExpectedDurationSeconds int                     `json:"expected_duration_seconds"`
	TrackingURL             string                  `json:"tracking_url"`
}

// CompetitionStats is the aggregate counters endpoint payload.
type CompetitionStats struct {
	Total        int                             `json:"total"`
	Active       int                             `json:"active"`
	CachedAgents int                             `json:"cached_agents"`
	ByStatus     map[model.CompetitionStatus]int `json:"by_status"`
}

// CompetitionService owns the competition lifecycle: creation, dispatch to the
// queue or an in-process goroutine, execution through the orchestrator, and
// result retrieval with a two-level cache (local map, then redis).
type CompetitionService struct {
	competitions repository.CompetitionRepository
	challenges   repository.ChallengeRepository
	agentRepo    repository.AgentRepository
	submissions  repository.SubmissionRepository
	orchestrator *arena.Orchestrator

	rdb       *redis.Client // nil when redis is disabled
	queueName string
	cacheTTL  time.Duration

	defaultTimeout time.Duration

	mu      sync.RWMutex
	results map[string]*model.CompetitionResults
}

func NewCompetitionService(
	competitions repository.CompetitionRepository,
	challenges repository.ChallengeRepository,
	agentRepo repository.AgentRepository,
	submissions repository.SubmissionRepository,
	orchestrator *arena.Orchestrator,
	rdb *redis.Client,
	queueName string,
	cacheTTL time.Duration,
	defaultTimeout time.Duration,
) *CompetitionService {
	return &CompetitionService{
		competitions:   competitions,
		challenges:     challenges,
		agentRepo:      agentRepo,
		submissions:    submissions,
		orchestrator:   orchestrator,
		rdb:            rdb,
		queueName:      queueName,
		cacheTTL:       cacheTTL,
		defaultTimeout: defaultTimeout,
		results:        make(map[string]*model.CompetitionResults),
	}
}

// Create registers a new competition in pending state. The challenge and every
// agent must exist, agents must be active and unique, and the field must have
// at least MinAgentsPerCompetition entries.
func (s *CompetitionService) Create(ctx context.Context, challengeID string, agentIDs []string, timeoutSeconds int) (*model.Competition, error) {
	if len(agentIDs) < MinAgentsPerCompetition {
		return nil, fmt.Errorf("a competition needs at least %d agents: %w", MinAgentsPerCompetition, common.ErrValidation)
	}
	seen := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		if seen[id] {
			return nil, fmt.Errorf("agent %s listed more than once: %w", id, common.ErrValidation)
		}
		seen[id] = true
	}

	if _, err := s.challenges.FindByID(ctx, challengeID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("challenge %s: %w", challengeID, common.ErrNotFound)
		}
		return nil, err
	}
	for _, id := range agentIDs {
		record, err := s.agentRepo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, fmt.Errorf("agent %s: %w", id, common.ErrNotFound)
			}
			return nil, err
		}
		if !record.IsActive {
			return nil, fmt.Errorf("agent %s is inactive: %w", id, common.ErrValidation)
		}
	}

	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeoutSeconds <= 0 {
		timeout = s.defaultTimeout
	}

	competition := &model.Competition{
		ID:             uuid.NewString(),
		ChallengeID:    challengeID,
		AgentIDs:       agentIDs,
		Status:         model.CompetitionPending,
		TimeoutSeconds: int(timeout.Seconds()),
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.competitions.Create(ctx, competition); err != nil {
		return nil, fmt.Errorf("create competition: %w", err)
	}
	log.Printf("Created competition %s: challenge %s, %d agents", competition.ID, challengeID, len(agentIDs))
	return competition, nil
}

// Start accepts a pending competition for execution. With redis the job is
// queued for the worker; without it a goroutine runs the competition in
// process. Either way the caller gets a receipt immediately.
func (s *CompetitionService) Start(ctx context.Context, competitionID string) (*StartReceipt, error) {
	competition, err := s.competitions.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != model.CompetitionPending {
		return nil, fmt.Errorf("competition %s is %s, only pending competitions can start: %w",
			competitionID, competition.Status, common.ErrCompetitionState)
	}

	if s.rdb != nil {
		payload, err := json.Marshal(CompetitionJob{CompetitionID: competitionID})
		if err != nil {
			return nil, fmt.Errorf("marshal competition job: %w", err)
		}
		if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
			return nil, fmt.Errorf("enqueue competition %s: %w", competitionID, err)
		}
		log.Printf("Queued competition %s on %s", competitionID, s.queueName)
	} else {
		go func() {
			if err := s.Run(context.Background(), competitionID); err != nil {
				log.Printf("Competition %s run failed: %v", competitionID, err)
			}
		}()
	}

	// Conservative worst case: every agent uses its full timeout.
	expected := len(competition.AgentIDs) * competition.TimeoutSeconds
	return &StartReceipt{
		CompetitionID:           competitionID,
		Status:                  model.CompetitionRunning,
		ExpectedDurationSeconds: expected,
		TrackingURL:             fmt.Sprintf("/api/v1/competitions/%s/status", competitionID),
	}, nil
}

// Run executes one competition to completion. It is called by the queue worker
// or by the in-process fallback goroutine, never by handlers directly.
func (s *CompetitionService) Run(ctx context.Context, competitionID string) error {
	competition, err := s.competitions.FindByID(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("load competition %s: %w", competitionID, err)
	}
	if competition.Status.IsTerminal() {
		return fmt.Errorf("competition %s already %s: %w", competitionID, competition.Status, common.ErrCompetitionState)
	}

	challenge, err := s.challenges.FindByID(ctx, competition.ChallengeID)
	if err != nil {
		s.markFailed(ctx, competition, fmt.Sprintf("challenge %s unavailable: %v", competition.ChallengeID, err))
		return fmt.Errorf("load challenge %s: %w", competition.ChallengeID, err)
	}

	timeout := time.Duration(competition.TimeoutSeconds) * time.Second
	results, err := s.orchestrator.RunCompetition(ctx, competitionID, challenge, competition.AgentIDs, timeout)
	if err != nil {
		s.markFailed(ctx, competition, err.Error())
		return fmt.Errorf("competition %s failed: %w", competitionID, err)
	}

	// A cancel may have landed while agents were in flight; only a competition
	// that actually ended completed gets its results cached.
	final, err := s.competitions.FindByID(ctx, competitionID)
	if err == nil && final.Status == model.CompetitionCompleted {
		s.cacheResults(ctx, results)
	}
	return nil
}

// Status returns the competition record, preferring the live in-flight state
// over the stored one.
func (s *CompetitionService) Status(ctx context.Context, competitionID string) (*model.Competition, error) {
	if competition, ok := s.orchestrator.Get(competitionID); ok {
		return competition, nil
	}
	return s.competitions.FindByID(ctx, competitionID)
}

// Results returns the full result set for a completed competition. The status
// gate comes first on every path, so a cached result set can never leak out
// for a competition that was cancelled or failed. After the gate, lookup
// order: local cache, redis, then reassembly from stored submissions.
func (s *CompetitionService) Results(ctx context.Context, competitionID string) (*model.CompetitionResults, error) {
	competition, err := s.competitions.FindByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if competition.Status != model.CompetitionCompleted {
		return nil, fmt.Errorf("competition %s is %s, results exist only for completed competitions: %w",
			competitionID, competition.Status, common.ErrCompetitionState)
	}

	s.mu.RLock()
	cached, ok := s.results[competitionID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if results := s.resultsFromRedis(ctx, competitionID); results != nil {
		return results, nil
	}

	return s.assembleResults(ctx, competition)
}

// Leaderboard returns just the ranking for a completed competition.
func (s *CompetitionService) Leaderboard(ctx context.Context, competitionID string) ([]model.LeaderboardEntry, error) {
	results, err := s.Results(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return results.Leaderboard, nil
}

// Submissions lists a competition's submissions, optionally filtered by agent.
func (s *CompetitionService) Submissions(ctx context.Context, competitionID, agentID string) ([]*model.Submission, error) {
	if _, err := s.competitions.FindByID(ctx, competitionID); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByCompetition(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if agentID == "" {
		return subs, nil
	}
	var filtered []*model.Submission
	for _, sub := range subs {
		if sub.AgentID == agentID {
			filtered = append(filtered, sub)
		}
	}
	return filtered, nil
}

// Cancel stops a running competition. Any other state reports false without
// an error; cancellation is only meaningful while agents are in flight.
func (s *CompetitionService) Cancel(ctx context.Context, competitionID string) (bool, error) {
	if s.orchestrator.Cancel(ctx, competitionID) {
		return true, nil
	}
	if _, err := s.competitions.FindByID(ctx, competitionID); err != nil {
		return false, err
	}
	return false, nil
}

// Stats returns aggregate competition counters.
func (s *CompetitionService) Stats(ctx context.Context) (*CompetitionStats, error) {
	counts, err := s.competitions.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("competition stats: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &CompetitionStats{
		Total:        total,
		Active:       s.orchestrator.ActiveCount(),
		CachedAgents: s.orchestrator.CachedAgents(),
		ByStatus:     counts,
	}, nil
}

func (s *CompetitionService) markFailed(ctx context.Context, competition *model.Competition, msg string) {
	if !competition.Status.CanTransitionTo(model.CompetitionFailed) {
		return
	}
	competition.Status = model.CompetitionFailed
	competition.ErrorMessage = &msg
	now := time.Now().UTC()
	competition.CompletedAt = &now
	if err := s.competitions.Update(ctx, competition); err != nil {
		log.Printf("Failed to mark competition %s as failed: %v", competition.ID, err)
	}
}

func (s *CompetitionService) cacheResults(ctx context.Context, results *model.CompetitionResults) {
	s.mu.Lock()
	s.results[results.CompetitionID] = results
	s.mu.Unlock()

	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(results)
	if err != nil {
		log.Printf("Failed to marshal results for %s: %v", results.CompetitionID, err)
		return
	}
	if err := s.rdb.Set(ctx, s.resultsKey(results.CompetitionID), payload, s.cacheTTL).Err(); err != nil {
		log.Printf("Failed to cache results for %s in redis: %v", results.CompetitionID, err)
	}
}

func (s *CompetitionService) resultsFromRedis(ctx context.Context, competitionID string) *model.CompetitionResults {
	if s.rdb == nil {
		return nil
	}
	payload, err := s.rdb.Get(ctx, s.resultsKey(competitionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis results lookup for %s failed: %v", competitionID, err)
		}
		return nil
	}
	var results model.CompetitionResults
	if err := json.Unmarshal(payload, &results); err != nil {
		log.Printf("Corrupt cached results for %s: %v", competitionID, err)
		return nil
	}
	return &results
}

// assembleResults rebuilds the result view from persisted submissions, for
// completed competitions that have fallen out of both caches.
func (s *CompetitionService) assembleResults(ctx context.Context, competition *model.Competition) (*model.CompetitionResults, error) {
	challenge, err := s.challenges.FindByID(ctx, competition.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge for results: %w", err)
	}
	subs, err := s.submissions.ListByCompetition(ctx, competition.ID)
	if err != nil {
		return nil, fmt.Errorf("load submissions for results: %w", err)
	}

	results := &model.CompetitionResults{
		CompetitionID: competition.ID,
		Challenge:     challenge,
		Submissions:   subs,
		Winner:        competition.WinnerAgentID,
		Leaderboard:   arena.BuildLeaderboard(subs),
	}
	if competition.StartedAt != nil {
		results.StartedAt = *competition.StartedAt
	}
	if competition.CompletedAt != nil {
		results.CompletedAt = *competition.CompletedAt
	}
	if competition.StartedAt != nil && competition.CompletedAt != nil {
		results.TotalDuration = competition.CompletedAt.Sub(*competition.StartedAt).Seconds()
	}
	return results, nil
}

func (s *CompetitionService) resultsKey(competitionID string) string {
	return "competition_results:" + competitionID
}
