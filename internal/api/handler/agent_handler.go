package handler

import (
	"encoding/json"
	"net/http"

	"github.com/devfork/arena/internal/app/service"
	"github.com/devfork/arena/internal/common"
	"github.com/devfork/arena/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AgentHandler struct {
	agents *service.AgentService
}

func NewAgentHandler(agents *service.AgentService) *AgentHandler {
	return &AgentHandler{agents: agents}
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.agents.Create(r.Context(), input)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, record)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.agents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, record)
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.agents.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	if records == nil {
		records = []*model.AgentRecord{}
	}
	common.RespondWithJSON(w, http.StatusOK, records)
}
