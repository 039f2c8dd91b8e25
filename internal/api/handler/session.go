package handler

import (
	"net/http"

	"github.com/mcoot/badminton-pairing/internal/api/request"
	"github.com/mcoot/badminton-pairing/internal/api/response"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// SessionHandler handles whole-session endpoints
type SessionHandler struct {
	controller session.ControllerInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller session.ControllerInterface) *SessionHandler {
	return &SessionHandler{
		controller: controller,
	}
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (*session.Snapshot, error) {
		return h.controller.Snapshot(r.Context())
	})
}

// Clear handles DELETE /api/v1/session
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (*session.Snapshot, error) {
		return h.controller.ClearAll(r.Context())
	})
}

// ResetStats handles POST /api/v1/stats/reset
func (h *SessionHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	h.respond(w, func() (*session.Snapshot, error) {
		return h.controller.ResetStats(r.Context())
	})
}

// SetCourtCount handles PUT /api/v1/courts/count
func (h *SessionHandler) SetCourtCount(w http.ResponseWriter, r *http.Request) {
	var req request.SetCourtCountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	h.respond(w, func() (*session.Snapshot, error) {
		return h.controller.SetCourtCount(r.Context(), req.Count)
	})
}

// Export handles GET /api/v1/session/export
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	blob, err := h.controller.Export(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Attachment(w, "session.json", "application/json", blob)
}

// Restore handles PUT /api/v1/session/export with a previously exported blob
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.respond(w, func() (*session.Snapshot, error) {
		return h.controller.Restore(r.Context(), data)
	})
}

func (h *SessionHandler) respond(w http.ResponseWriter, op func() (*session.Snapshot, error)) {
	snap, err := op()
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(snap, h.controller.Levels()))
}
