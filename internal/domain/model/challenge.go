package model

import (
	"time"
)

type ChallengeDifficulty string

const (
	DifficultyEasy   ChallengeDifficulty = "easy"
	DifficultyMedium ChallengeDifficulty = "medium"
	DifficultyHard   ChallengeDifficulty = "hard"
)

// Challenge is an immutable problem definition. It is created once by an admin
// and never mutated afterwards; competitions only read it.
type Challenge struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Difficulty  ChallengeDifficulty `json:"difficulty"`
	TestCases   []TestCase          `json:"test_cases,omitempty"`
	Constraints *string             `json:"constraints,omitempty"`
	TimeLimit   int                 `json:"time_limit"`   // seconds
	MemoryLimit int                 `json:"memory_limit"` // MB
	Tags        []string            `json:"tags,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
}

// PublicView returns a copy with hidden test cases stripped, for non-admin reads.
func (c *Challenge) PublicView() *Challenge {
	out := *c
	out.TestCases = nil
	for _, tc := range c.TestCases {
		if !tc.IsHidden {
			out.TestCases = append(out.TestCases, tc)
		}
	}
	return &out
}
