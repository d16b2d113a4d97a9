package agents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/repository"
)

// Registry loads agents from the repository and caches the built instances.
// It is created in main and injected wherever agents are resolved, so
// concurrent competitions share one mutex-guarded cache instead of a
// process-wide singleton.
type Registry struct {
	repo    repository.AgentRepository
	factory FactoryFunc

	mu    sync.RWMutex
	cache map[string]Agent
}

func NewRegistry(repo repository.AgentRepository, factory FactoryFunc) *Registry {
	return &Registry{
		repo:    repo,
		factory: factory,
		cache:   make(map[string]Agent),
	}
}

// Load resolves an agent by id, from cache or by fetching and validating its
// record. "Not found" and "inactive" are distinct failure modes.
func (r *Registry) Load(ctx context.Context, agentID string) (Agent, error) {
	r.mu.RLock()
	agent, ok := r.cache[agentID]
	r.mu.RUnlock()
	if ok {
		return agent, nil
	}

	record, err := r.repo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("agent %s: %w", agentID, ErrAgentNotFound)
		}
		return nil, fmt.Errorf("load agent %s: %w", agentID, err)
	}
	if !record.IsActive {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrAgentInactive)
	}

	agent, err = r.factory(record)
	if err != nil {
		return nil, fmt.Errorf("create agent %s: %w", agentID, err)
	}

	r.mu.Lock()
	// Another competition may have built the same agent concurrently; keep the
	// first instance so both runs share it.
	if existing, ok := r.cache[agentID]; ok {
		agent = existing
	} else {
		r.cache[agentID] = agent
	}
	r.mu.Unlock()

	log.Printf("Loaded agent %s (%s)", agentID, record.Name)
	return agent, nil
}

// Clear drops all cached instances. The orchestrator calls this after every
// competition; it is a coarse purge, not a selective eviction.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.cache = make(map[string]Agent)
	r.mu.Unlock()
}

// Size returns the number of cached agent instances.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}
