package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

// CatalogHandler serves the static signal, event type and remediation
// action tables.
type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// GET /v1/signals
func (h *CatalogHandler) ListSignals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, signals.SignalRegistry)
}

// GET /v1/event-types
func (h *CatalogHandler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, signals.EventTypeRegistry)
}

// ListActions returns the remediation actions for one event type. Unknown
// types get an empty list, not an error.
// GET /v1/event-types/{event_type}/actions
func (h *CatalogHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	eventType := types.EventType(chi.URLParam(r, "event_type"))
	writeJSON(w, http.StatusOK, signals.ActionsFor(eventType))
}

// GET /v1/action-categories
func (h *CatalogHandler) ListActionCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, signals.CategoryStyles)
}
