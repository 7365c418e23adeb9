package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/export"
	"github.com/matthewbaird/signify/internal/signallog"
	"github.com/matthewbaird/signify/internal/signals"
	"github.com/matthewbaird/signify/internal/types"
)

// SignalLogHandler implements the per-person signal log endpoints. Every
// mutation answers with the freshly recomputed timeline and its ETag.
type SignalLogHandler struct {
	engine *engine.Engine
	logger *zap.Logger
}

func NewSignalLogHandler(e *engine.Engine, logger *zap.Logger) *SignalLogHandler {
	return &SignalLogHandler{engine: e, logger: logger}
}

// filteredTimeline is the response for a query with filters. Summary always
// covers the whole log.
type filteredTimeline struct {
	PersonID int                `json:"person_id"`
	Version  int64              `json:"version"`
	Current  types.RiskCategory `json:"current"`
	Entries  []signals.Entry    `json:"entries"`
	Summary  signals.Summary    `json:"summary"`
}

// GetTimeline returns the recomputed signal log.
// GET /v1/people/{id}/signal-log?order=&since=&until=&event_types=&limit=
func (h *SignalLogHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}

	if len(r.URL.Query()) == 0 {
		data, version, err := h.engine.CachedTimelineJSON(r.Context(), personID)
		if err != nil {
			writeDomainError(w, h.logger, err)
			return
		}
		setETag(w, version)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	opts, err := signallog.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	tl, err := h.engine.Timeline(r.Context(), personID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	setETag(w, tl.Version)
	writeJSON(w, http.StatusOK, filteredTimeline{
		PersonID: tl.PersonID,
		Version:  tl.Version,
		Current:  tl.Current,
		Entries:  signallog.Filter(tl.Entries, opts),
		Summary:  tl.Summary,
	})
}

// GET /v1/people/{id}/signal-log/summary
func (h *SignalLogHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	tl, err := h.engine.Timeline(r.Context(), personID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	setETag(w, tl.Version)
	writeJSON(w, http.StatusOK, tl.Summary)
}

// Export renders the timeline as an xlsx workbook. The same filters as
// GetTimeline apply.
// GET /v1/people/{id}/signal-log/export.xlsx
func (h *SignalLogHandler) Export(w http.ResponseWriter, r *http.Request) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	opts, err := signallog.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
		return
	}
	person, err := h.engine.GetPerson(r.Context(), personID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	tl, err := h.engine.Timeline(r.Context(), personID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTimeline(&buf, person.Person, signallog.Filter(tl.Entries, opts)); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	setETag(w, tl.Version)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="signal-log-%d.xlsx"`, personID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

type addEventRequest struct {
	Date            types.Date      `json:"date"`
	EventType       types.EventType `json:"event_type"`
	Description     string          `json:"description"`
	RiskScoreImpact int             `json:"risk_score_impact"`
}

// AddEvent logs a new life event.
// POST /v1/people/{id}/signal-log
func (h *SignalLogHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	expected, ok := parseIfMatch(w, r)
	if !ok {
		return
	}
	var req addEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if !req.EventType.IsValid() {
		writeError(w, http.StatusBadRequest, "UNKNOWN_EVENT_TYPE", fmt.Sprintf("unknown event type %q", req.EventType))
		return
	}

	tl, added, err := h.engine.AddEvent(r.Context(), personID, expected, types.SignalLogEvent{
		Date:            req.Date,
		EventType:       req.EventType,
		Description:     req.Description,
		RiskScoreImpact: req.RiskScoreImpact,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	setETag(w, tl.Version)
	writeJSON(w, http.StatusCreated, struct {
		Event    types.SignalLogEvent `json:"event"`
		Timeline engine.Timeline      `json:"timeline"`
	}{Event: added, Timeline: tl})
}

// DELETE /v1/people/{id}/signal-log/{event_id}
func (h *SignalLogHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error) {
		return h.engine.DeleteEvent(r.Context(), personID, expected, eventID)
	})
}

type impactRequest struct {
	Impact json.RawMessage `json:"impact"`
}

// UpdateImpact sets an event's impact. The value may be a number, a numeric
// string or empty; anything unparseable is treated as 0.
// PUT /v1/people/{id}/signal-log/{event_id}/impact
func (h *SignalLogHandler) UpdateImpact(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error) {
		var req impactRequest
		if err := decodeJSON(r, &req); err != nil {
			return engine.Timeline{}, badRequest{err}
		}
		return h.engine.UpdateImpactInput(r.Context(), personID, expected, eventID, impactInput(req.Impact))
	})
}

// impactInput turns the raw impact field into numeric-field text.
func impactInput(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return ""
	}
	return text
}

// POST /v1/people/{id}/signal-log/{event_id}/impact/increment
func (h *SignalLogHandler) IncrementImpact(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error) {
		return h.engine.AdjustImpact(r.Context(), personID, expected, eventID, 1)
	})
}

// POST /v1/people/{id}/signal-log/{event_id}/impact/decrement
func (h *SignalLogHandler) DecrementImpact(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error) {
		return h.engine.AdjustImpact(r.Context(), personID, expected, eventID, -1)
	})
}

type recordActionRequest struct {
	ActionID string `json:"action_id"`
	Notes    string `json:"notes"`
}

// PUT /v1/people/{id}/signal-log/{event_id}/action
func (h *SignalLogHandler) RecordAction(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error) {
		var req recordActionRequest
		if err := decodeJSON(r, &req); err != nil {
			return engine.Timeline{}, badRequest{err}
		}
		return h.engine.RecordAction(r.Context(), personID, expected, eventID, req.ActionID, req.Notes)
	})
}

// badRequest marks a body decoding failure inside a mutation.
type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }

func (b badRequest) Unwrap() error { return b.err }

type mutation func(r *http.Request, personID int, expected int64, eventID int) (engine.Timeline, error)

func (h *SignalLogHandler) mutate(w http.ResponseWriter, r *http.Request, fn mutation) {
	personID, ok := parseIntParam(w, r, "id")
	if !ok {
		return
	}
	eventID, ok := parseIntParam(w, r, "event_id")
	if !ok {
		return
	}
	expected, ok := parseIfMatch(w, r)
	if !ok {
		return
	}

	tl, err := fn(r, personID, expected, eventID)
	if err != nil {
		var br badRequest
		if errors.As(err, &br) {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", br.Error())
			return
		}
		writeDomainError(w, h.logger, err)
		return
	}
	setETag(w, tl.Version)
	writeJSON(w, http.StatusOK, tl)
}
