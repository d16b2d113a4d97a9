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

// OpenAIAgent generates solutions through the OpenAI chat completions API.
type OpenAIAgent struct {
	record  *model.AgentRecord
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewOpenAIAgent(record *model.AgentRecord, cfg ProviderConfig) *OpenAIAgent {
	return &OpenAIAgent{
		record:  record,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		apiKey:  cfg.OpenAIAPIKey,
		baseURL: cfg.OpenAIBaseURL,
	}
}

func (a *OpenAIAgent) Name() string { return a.record.Name }

func (a *OpenAIAgent) Solve(ctx context.Context, challenge *model.Challenge) (*Solution, error) {
	return solveChallenge(ctx, a.record, challenge, a.generate)
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (a *OpenAIAgent) generate(ctx context.Context, systemPrompt *string, prompt string) (string, error) {
	messages := []openAIMessage{}
	if systemPrompt != nil {
		messages = append(messages, openAIMessage{Role: "system", Content: *systemPrompt})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(openAIRequest{
		Model:       a.record.ModelName,
		Temperature: a.record.Temperature,
		MaxTokens:   a.record.MaxTokens,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}

	var parsed openAIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("openai API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai API error: status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
