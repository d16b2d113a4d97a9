package model

import "time"

// AgentRecord is the stored configuration of an AI agent. The runtime instance
// built from it lives in the agents package.
type AgentRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Provider      string    `json:"provider"` // anthropic, openai
	ModelName     string    `json:"model_name"`
	Temperature   float64   `json:"temperature"`
	MaxTokens     int       `json:"max_tokens"`
	MaxIterations int       `json:"max_iterations"` // bounded internal retry loop
	SystemPrompt  *string   `json:"system_prompt,omitempty"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}
