package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/devfork/arena/internal/domain/model"
)

const anthropicVersion = "2023-06-01"

// ClaudeAgent generates solutions through the Anthropic Messages API.
type ClaudeAgent struct {
	record  *model.AgentRecord
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewClaudeAgent(record *model.AgentRecord, cfg ProviderConfig) *ClaudeAgent {
	return &ClaudeAgent{
		record:  record,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		apiKey:  cfg.AnthropicAPIKey,
		baseURL: cfg.AnthropicBaseURL,
	}
}

func (a *ClaudeAgent) Name() string { return a.record.Name }

func (a *ClaudeAgent) Solve(ctx context.Context, challenge *model.Challenge) (*Solution, error) {
	return solveChallenge(ctx, a.record, challenge, a.generate)
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *ClaudeAgent) generate(ctx context.Context, systemPrompt *string, prompt string) (string, error) {
	reqBody := anthropicRequest{
		Model:       a.record.ModelName,
		MaxTokens:   a.record.MaxTokens,
		Temperature: a.record.Temperature,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}
	if systemPrompt != nil {
		reqBody.System = *systemPrompt
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("anthropic API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("anthropic API error: status %d", resp.StatusCode)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic response contained no content")
	}
	return parsed.Content[0].Text, nil
}
