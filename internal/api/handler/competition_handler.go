package handler

import (
	"encoding/json"
	"net/http"

	"github.com/devfork/arena/internal/app/service"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type CompetitionHandler struct {
	competitions *service.CompetitionService
}

func NewCompetitionHandler(competitions *service.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitions: competitions}
}

type createCompetitionRequest struct {
	ChallengeID    string   `json:"challenge_id"`
	AgentIDs       []string `json:"agent_ids"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

func (h *CompetitionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	competition, err := h.competitions.Create(r.Context(), req.ChallengeID, req.AgentIDs, req.TimeoutSeconds)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, competition)
}

func (h *CompetitionHandler) Start(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.competitions.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, receipt)
}

func (h *CompetitionHandler) Status(w http.ResponseWriter, r *http.Request) {
	competition, err := h.competitions.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, competition)
}

func (h *CompetitionHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.competitions.Results(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, results)
}

func (h *CompetitionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := h.competitions.Leaderboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if leaderboard == nil {
		leaderboard = []model.LeaderboardEntry{}
	}
	common.RespondWithJSON(w, http.StatusOK, leaderboard)
}

func (h *CompetitionHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.competitions.Submissions(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("agent_id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if subs == nil {
		subs = []*model.Submission{}
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

type cancelResponse struct {
	CompetitionID string `json:"competition_id"`
	Cancelled     bool   `json:"cancelled"`
}

func (h *CompetitionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cancelled, err := h.competitions.Cancel(r.Context(), id)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, cancelResponse{CompetitionID: id, Cancelled: cancelled})
}

func (h *CompetitionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.competitions.Stats(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
