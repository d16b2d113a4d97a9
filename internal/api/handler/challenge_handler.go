package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/devfork/arena/internal/api/middleware"
	"github.com/devfork/arena/internal/app/service"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challenges *service.ChallengeService
}

func NewChallengeHandler(challenges *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateChallengeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	challenge, err := h.challenges.Create(r.Context(), input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	challenge, err := h.challenges.Get(r.Context(), id, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	challenge, err := h.challenges.GetBySlug(r.Context(), slug, middleware.IsAdmin(r.Context()))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

type challengeListResponse struct {
	Challenges []*model.Challenge `json:"challenges"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	difficulty := model.ChallengeDifficulty(r.URL.Query().Get("difficulty"))

	challenges, total, err := h.challenges.List(r.Context(), limit, offset, difficulty)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if challenges == nil {
		challenges = []*model.Challenge{}
	}
	common.RespondWithJSON(w, http.StatusOK, challengeListResponse{
		Challenges: challenges,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
	})
}
