package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devfork/arena/internal/agents"
	"github.com/devfork/arena/internal/api/handler"
	"github.com/devfork/arena/internal/app/arena"
	"github.com/devfork/arena/internal/app/evaluator"
	"github.com/devfork/arena/internal/app/service"
	"github.com/devfork/arena/internal/common/security"
	"github.com/devfork/arena/internal/domain/model"
	"github.com/devfork/arena/internal/domain/repository"
	"github.com/devfork/arena/internal/platform/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	config.Load()
	security.InitJWT()

	userRepo := repository.NewMemoryUserRepository()
	challengeRepo := repository.NewMemoryChallengeRepository()
	agentRepo := repository.NewMemoryAgentRepository()
	competitionRepo := repository.NewMemoryCompetitionRepository()
	submissionRepo := repository.NewMemorySubmissionRepository()

	factory := agents.NewFactory(agents.ProviderConfig{RequestTimeout: time.Second})
	registry := agents.NewRegistry(agentRepo, factory)
	runner := arena.NewRunner(registry, &evaluator.Mock{PassRatio: 1}, submissionRepo)
	orchestrator := arena.NewOrchestrator(runner, registry, competitionRepo)

	router := NewRouter(
		handler.NewAuthHandler(service.NewAuthService(userRepo)),
		handler.NewChallengeHandler(service.NewChallengeService(challengeRepo)),
		handler.NewAgentHandler(service.NewAgentService(agentRepo, 3)),
		handler.NewCompetitionHandler(service.NewCompetitionService(
			competitionRepo, challengeRepo, agentRepo, submissionRepo,
			orchestrator, nil, "test_queue", time.Minute, 5*time.Minute)),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := security.GenerateToken("admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("generate admin token: %v", err)
	}
	return token
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSignupAndLogin(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/signup", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	if login.Token == "" {
		t.Error("login returned no token")
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", resp.StatusCode)
	}
}

func TestWriteRoutesRequireAuth(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/competitions", "", map[string]interface{}{
		"challenge_id": "x", "agent_ids": []string{"a", "b"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated create status = %d, want 401", resp.StatusCode)
	}
}

func TestChallengeCreationIsAdminOnly(t *testing.T) {
	server := newTestServer(t)

	userToken, err := security.GenerateToken("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	payload := map[string]interface{}{
		"title": "Sum Two Numbers", "description": "Add them.", "difficulty": "easy",
		"test_cases": []map[string]interface{}{{"input": "1 2", "expected_output": "3"}},
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/challenges", userToken, payload)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-admin create status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/challenges", adminToken(t), payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin create status = %d, want 201", resp.StatusCode)
	}
	var created model.Challenge
	decode(t, resp, &created)
	if created.Slug != "sum-two-numbers" {
		t.Errorf("slug = %s, want sum-two-numbers", created.Slug)
	}
}

func TestChallengeHiddenCasesVisibility(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/challenges", admin, map[string]interface{}{
		"title": "Echo", "description": "Echo input.", "difficulty": "easy",
		"test_cases": []map[string]interface{}{
			{"input": "a", "expected_output": "a"},
			{"input": "b", "expected_output": "b", "is_hidden": true},
		},
	})
	var created model.Challenge
	decode(t, resp, &created)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/challenges/"+created.ID, "", nil)
	var public model.Challenge
	decode(t, resp, &public)
	if len(public.TestCases) != 1 {
		t.Errorf("anonymous read sees %d cases, want 1", len(public.TestCases))
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/challenges/"+created.ID, admin, nil)
	var full model.Challenge
	decode(t, resp, &full)
	if len(full.TestCases) != 2 {
		t.Errorf("admin read sees %d cases, want 2", len(full.TestCases))
	}
}

func TestCompetitionEndToEnd(t *testing.T) {
	server := newTestServer(t)
	admin := adminToken(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/v1/challenges", admin, map[string]interface{}{
		"title": "Echo", "description": "Echo input.", "difficulty": "medium",
		"test_cases": []map[string]interface{}{{"input": "a", "expected_output": "a"}},
	})
	var challenge model.Challenge
	decode(t, resp, &challenge)

	var agentIDs []string
	for _, name := range []string{"claude-solver", "gpt-solver"} {
		provider := "anthropic"
		if name == "gpt-solver" {
			provider = "openai"
		}
		resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/agents", admin, map[string]interface{}{
			"name": name, "provider": provider, "model_name": "test-model",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create agent status = %d, want 201", resp.StatusCode)
		}
		var record model.AgentRecord
		decode(t, resp, &record)
		agentIDs = append(agentIDs, record.ID)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/competitions", admin, map[string]interface{}{
		"challenge_id": challenge.ID, "agent_ids": agentIDs, "timeout_seconds": 60,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create competition status = %d, want 201", resp.StatusCode)
	}
	var competition model.Competition
	decode(t, resp, &competition)
	if competition.Status != model.CompetitionPending {
		t.Errorf("new competition status = %s, want pending", competition.Status)
	}

	// Results are refused until the competition completes.
	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/competitions/%s/results", server.URL, competition.ID), "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("early results status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/competitions/%s/status", server.URL, competition.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status endpoint = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// Rejecting an unknown agent list at creation time.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/v1/competitions", admin, map[string]interface{}{
		"challenge_id": challenge.ID, "agent_ids": []string{agentIDs[0]},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("single-agent competition status = %d, want 400", resp.StatusCode)
	}

	// Cancel only applies while running; a pending competition reports false.
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/v1/competitions/%s", server.URL, competition.ID), admin, nil)
	var cancel struct {
		Cancelled bool `json:"cancelled"`
	}
	decode(t, resp, &cancel)
	if cancel.Cancelled {
		t.Error("cancel of a pending competition reported true")
	}

	resp = doJSON(t, http.MethodGet, server.URL+"/api/v1/competitions/stats", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", resp.StatusCode)
	}
	var stats service.CompetitionStats
	decode(t, resp, &stats)
	if stats.Total != 1 {
		t.Errorf("stats total = %d, want 1", stats.Total)
	}
}
