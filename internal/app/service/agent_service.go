package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
)

type AgentService struct {
	agents               repository.AgentRepository
	defaultMaxIterations int
}

func NewAgentService(repo repository.AgentRepository, defaultMaxIterations int) *AgentService {
	return &AgentService{agents: repo, defaultMaxIterations: defaultMaxIterations}
}

type CreateAgentInput struct {
	Name          string  `json:"name"`
	Provider      string  `json:"provider"`
	ModelName     string  `json:"model_name"`
	Temperature   float64 `json:"temperature"`
	MaxTokens     int     `json:"max_tokens"`
	MaxIterations int     `json:"max_iterations"`
	SystemPrompt  *string `json:"system_prompt,omitempty"`
}

// Create validates the provider against the closed set before anything is
// stored, so a bad record can never reach the factory.
func (s *AgentService) Create(ctx context.Context, input CreateAgentInput) (*model.AgentRecord, error) {
	if input.Name == "" || input.ModelName == "" {
		return nil, fmt.Errorf("name and model_name are required: %w", common.ErrValidation)
	}
	if !providerSupported(input.Provider) {
		return nil, fmt.Errorf("unsupported provider %q (supported: %s): %w",
			input.Provider, strings.Join(agents.SupportedProviders, ", "), common.ErrValidation)
	}
	if input.Temperature < 0 || input.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2: %w", common.ErrValidation)
	}
	if input.MaxIterations <= 0 {
		input.MaxIterations = s.defaultMaxIterations
	}
	if input.MaxTokens <= 0 {
		input.MaxTokens = 4096
	}

	record := &model.AgentRecord{
		ID:            uuid.NewString(),
		Name:          input.Name,
		Provider:      strings.ToLower(input.Provider),
		ModelName:     input.ModelName,
		Temperature:   input.Temperature,
		MaxTokens:     input.MaxTokens,
		MaxIterations: input.MaxIterations,
		SystemPrompt:  input.SystemPrompt,
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.agents.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *AgentService) Get(ctx context.Context, id string) (*model.AgentRecord, error) {
	return s.agents.FindByID(ctx, id)
}

func (s *AgentService) List(ctx context.Context) ([]*model.AgentRecord, error) {
	return s.agents.List(ctx)
}

func providerSupported(provider string) bool {
	lowered := strings.ToLower(provider)
	for _, p := range agents.SupportedProviders {
		if p == lowered {
			return true
		}
	}
	return false
}
