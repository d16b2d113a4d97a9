package repository

import (
	"context"
	"sync"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
)

// In-memory repository implementations, used when the service runs without a
// database. They satisfy the same interfaces as the pg repositories so the rest
// of the application does not care which one it got.

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*model.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

type MemoryChallengeRepository struct {
	mu         sync.RWMutex
	challenges []*model.Challenge
}

func NewMemoryChallengeRepository() *MemoryChallengeRepository {
	return &MemoryChallengeRepository{}
}

func (r *MemoryChallengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.challenges {
		if c.Slug == challenge.Slug {
			return common.ErrConflict
		}
	}
	cp := *challenge
	r.challenges = append(r.challenges, &cp)
	return nil
}

func (r *MemoryChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	return r.find(func(c *model.Challenge) bool { return c.ID == id })
}

func (r *MemoryChallengeRepository) FindBySlug(ctx context.Context, slug string) (*model.Challenge, error) {
	return r.find(func(c *model.Challenge) bool { return c.Slug == slug })
}

func (r *MemoryChallengeRepository) find(match func(*model.Challenge) bool) (*model.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.challenges {
		if match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryChallengeRepository) List(ctx context.Context, limit, offset int, difficulty model.ChallengeDifficulty) ([]*model.Challenge, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var filtered []*model.Challenge
	for _, c := range r.challenges {
		if difficulty == "" || c.Difficulty == difficulty {
			cp := *c
			filtered = append(filtered, &cp)
		}
	}
	total := len(filtered)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

type MemoryAgentRepository struct {
	mu     sync.RWMutex
	agents []*model.AgentRecord
}

func NewMemoryAgentRepository() *MemoryAgentRepository {
	return &MemoryAgentRepository{}
}

func (r *MemoryAgentRepository) Create(ctx context.Context, agent *model.AgentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		if a.Name == agent.Name {
			return common.ErrConflict
		}
	}
	cp := *agent
	r.agents = append(r.agents, &cp)
	return nil
}

func (r *MemoryAgentRepository) FindByID(ctx context.Context, id string) (*model.AgentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryAgentRepository) List(ctx context.Context) ([]*model.AgentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.AgentRecord, 0, len(r.agents))
	for _, a := range r.agents {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

type MemoryCompetitionRepository struct {
	mu           sync.RWMutex
	competitions map[string]*model.Competition
}

func NewMemoryCompetitionRepository() *MemoryCompetitionRepository {
	return &MemoryCompetitionRepository{competitions: make(map[string]*model.Competition)}
}

func (r *MemoryCompetitionRepository) Create(ctx context.Context, competition *model.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *competition
	r.competitions[competition.ID] = &cp
	return nil
}

// Update touches the same columns as the pg implementation; creation data
// (challenge, agent list, timeout, created_at) is immutable after Create.
func (r *MemoryCompetitionRepository) Update(ctx context.Context, competition *model.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.competitions[competition.ID]
	if !ok {
		return common.ErrNotFound
	}
	existing.Status = competition.Status
	existing.WinnerAgentID = competition.WinnerAgentID
	existing.ErrorMessage = competition.ErrorMessage
	existing.StartedAt = competition.StartedAt
	existing.CompletedAt = competition.CompletedAt
	return nil
}

func (r *MemoryCompetitionRepository) FindByID(ctx context.Context, id string) (*model.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.competitions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryCompetitionRepository) CountByStatus(ctx context.Context) (map[model.CompetitionStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[model.CompetitionStatus]int)
	for _, c := range r.competitions {
		counts[c.Status]++
	}
	return counts, nil
}

type MemorySubmissionRepository struct {
	mu          sync.RWMutex
	submissions map[string]*model.Submission
	order       []string
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{submissions: make(map[string]*model.Submission)}
}

func (r *MemorySubmissionRepository) Save(ctx context.Context, submission *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.submissions[submission.ID]; !ok {
		r.order = append(r.order, submission.ID)
	}
	cp := *submission
	r.submissions[submission.ID] = &cp
	return nil
}

func (r *MemorySubmissionRepository) ListByCompetition(ctx context.Context, competitionID string) ([]*model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.Submission
	for _, id := range r.order {
		s := r.submissions[id]
		if s.CompetitionID == competitionID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}
