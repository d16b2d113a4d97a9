package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClaudeAgentSolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %s, want test-model", req.Model)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "```python\n" + validCode + "```"}},
		})
	}))
	defer server.Close()

	agent := NewClaudeAgent(testRecord(3), ProviderConfig{
		AnthropicAPIKey:  "test-key",
		AnthropicBaseURL: server.URL,
		RequestTimeout:   5 * time.Second,
	})

	solution, err := agent.Solve(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if solution.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", solution.Attempts)
	}
}

func TestClaudeAgentSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"type": "rate_limit_error", "message": "overloaded"},
		})
	}))
	defer server.Close()

	agent := NewClaudeAgent(testRecord(1), ProviderConfig{
		AnthropicBaseURL: server.URL,
		RequestTimeout:   5 * time.Second,
	})

	_, err := agent.Solve(context.Background(), testChallenge())
	if err == nil {
		t.Fatal("Solve succeeded against a failing API")
	}
}

func TestOpenAIAgentSolve(t *testing.T) {
	systemPrompt := "You are terse."
	record := testRecord(3)
	record.Provider = "openai"
	record.SystemPrompt = &systemPrompt

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("missing bearer token")
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("system prompt not prepended: %+v", req.Messages)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": validCode}},
			},
		})
	}))
	defer server.Close()

	agent := NewOpenAIAgent(record, ProviderConfig{
		OpenAIAPIKey:   "test-key",
		OpenAIBaseURL:  server.URL,
		RequestTimeout: 5 * time.Second,
	})

	solution, err := agent.Solve(context.Background(), testChallenge())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if solution.Code == "" {
		t.Error("empty solution code")
	}
}
