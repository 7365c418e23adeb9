package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/types"
)

// PeopleHandler implements the people, signal and connection endpoints.
type PeopleHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewPeopleHandler(e *engine.Engine, logger *zap.Logger) *PeopleHandler {
	return &PeopleHandler{engine: e, logger: logger}
}

func (h *PeopleHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListPeople(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type createPersonRequest struct {
	ID         int             `json:"id,omitempty"`
	Name       string          `json:"name"`
	Email      string          `json:"email,omitempty"`
	Department string          `json:"department,omitempty"`
	Role       string          `json:"role,omitempty"`
	Age        int             `json:"age,omitempty"`
	Ward       string          `json:"ward,omitempty"`
	Signals    types.SignalSet `json:"signals"`
}

func (h *PeopleHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	pr, err := h.engine.CreatePerson(r.Context(), types.Person{
		ID:         req.ID,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Role:       req.Role,
		Age:        req.Age,
		Ward:       req.Ward,
		Signals:    req.Signals,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}

func (h *PeopleHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	pr, err := h.engine.GetPerson(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *PeopleHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	var patch people.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	pr, err := h.engine.UpdatePerson(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *PeopleHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.engine.DeletePerson(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /v1/people/{id}/signals/{signal}/toggle
func (h *PeopleHandler) ToggleSignal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	key := types.SignalKey(chi.URLParam(r, "signal"))
	pr, err := h.engine.ToggleSignal(r.Context(), id, key)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// POST /v1/people/{id}/signals/clear
func (h *PeopleHandler) ClearSignals(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	pr, err := h.engine.ClearSignals(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *PeopleHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.engine.Connections(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (h *PeopleHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var c types.Connection
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	c.ID = 0
	created, err := h.engine.AddConnection(r.Context(), c)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /v1/network
func (h *PeopleHandler) GetNetwork(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Network(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
