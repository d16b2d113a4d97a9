package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ChallengeService struct {
	challenges repository.ChallengeRepository
}

func NewChallengeService(challenges repository.ChallengeRepository) *ChallengeService {
	return &ChallengeService{challenges: challenges}
}

// CreateChallengeInput is everything an admin supplies; id, slug and timestamps
// are derived here.
type CreateChallengeInput struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Difficulty  model.ChallengeDifficulty `json:"difficulty"`
	TestCases   []model.TestCase          `json:"test_cases"`
	Constraints *string                   `json:"constraints,omitempty"`
	TimeLimit   int                       `json:"time_limit"`
	MemoryLimit int                       `json:"memory_limit"`
	Tags        []string                  `json:"tags,omitempty"`
}

func (s *ChallengeService) Create(ctx context.Context, input CreateChallengeInput) (*model.Challenge, error) {
	if input.Title == "" || input.Description == "" {
		return nil, fmt.Errorf("title and description are required: %w", common.ErrValidation)
	}
	switch input.Difficulty {
	case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
	default:
		return nil, fmt.Errorf("difficulty must be easy, medium or hard: %w", common.ErrValidation)
	}
	if len(input.TestCases) == 0 {
		return nil, fmt.Errorf("at least one test case is required: %w", common.ErrValidation)
	}

	challenge := &model.Challenge{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Slug:        slug.Make(input.Title),
		Description: input.Description,
		Difficulty:  input.Difficulty,
		TestCases:   input.TestCases,
		Constraints: input.Constraints,
		TimeLimit:   input.TimeLimit,
		MemoryLimit: input.MemoryLimit,
		Tags:        input.Tags,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

// Get returns a challenge by id. Non-admin callers get the public view with
// hidden test cases stripped.
func (s *ChallengeService) Get(ctx context.Context, id string, includeHidden bool) (*model.Challenge, error) {
	challenge, err := s.challenges.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !includeHidden {
		return challenge.PublicView(), nil
	}
	return challenge, nil
}

func (s *ChallengeService) GetBySlug(ctx context.Context, slug string, includeHidden bool) (*model.Challenge, error) {
	challenge, err := s.challenges.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !includeHidden {
		return challenge.PublicView(), nil
	}
	return challenge, nil
}

func (s *ChallengeService) List(ctx context.Context, limit, offset int, difficulty model.ChallengeDifficulty) ([]*model.Challenge, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	challenges, total, err := s.challenges.List(ctx, limit, offset, difficulty)
	if err != nil {
		return nil, 0, err
	}
	for i, c := range challenges {
		challenges[i] = c.PublicView()
	}
	return challenges, total, nil
}
