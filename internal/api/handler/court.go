package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/badminton-pairing/internal/api/request"
	"github.com/mcoot/badminton-pairing/internal/api/response"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// CourtHandler handles pairing and match lifecycle endpoints
type CourtHandler struct {
	controller session.ControllerInterface
}

// NewCourtHandler creates a new court handler
func NewCourtHandler(controller session.ControllerInterface) *CourtHandler {
	return &CourtHandler{
		controller: controller,
	}
}

// AutoPair handles POST /api/v1/courts/auto-pair
func (h *CourtHandler) AutoPair(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.controller.AutoPair(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ProposalFromModel(proposal))
}

// Suggest handles GET /api/v1/courts/suggestion
func (h *CourtHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.controller.Suggest(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProposalFromModel(proposal))
}

// StartAll handles POST /api/v1/courts/start-all
func (h *CourtHandler) StartAll(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.controller.StartAll(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StartAllFromModel(outcomes))
}

// Propose handles PUT /api/v1/courts/{id}/pairs
func (h *CourtHandler) Propose(w http.ResponseWriter, r *http.Request) {
	courtID, err := parseCourtID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.ProposeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	matchup := model.NewMatchup(
		model.Pair{model.PlayerID(req.Teams[0][0]), model.PlayerID(req.Teams[0][1])},
		model.Pair{model.PlayerID(req.Teams[1][0]), model.PlayerID(req.Teams[1][1])},
	)
	h.respond(w, http.StatusOK, func() (*session.CourtView, error) {
		return h.controller.ProposeCourt(r.Context(), courtID, matchup)
	})
}

// Clear handles DELETE /api/v1/courts/{id}/pairs
func (h *CourtHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.controller.ClearCourt)
}

// Start handles POST /api/v1/courts/{id}/start
func (h *CourtHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.controller.StartCourt)
}

// Cancel handles POST /api/v1/courts/{id}/cancel
func (h *CourtHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.controller.CancelCourt)
}

// End handles POST /api/v1/courts/{id}/end
func (h *CourtHandler) End(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.controller.EndCourt)
}

// lifecycle runs a per-court transition and writes the resulting court
func (h *CourtHandler) lifecycle(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, courtID int) (*session.CourtView, error),
) {
	courtID, err := parseCourtID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.respond(w, http.StatusOK, func() (*session.CourtView, error) {
		return op(r.Context(), courtID)
	})
}

func (h *CourtHandler) respond(w http.ResponseWriter, status int, op func() (*session.CourtView, error)) {
	view, err := op()
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, status, response.CourtFromView(view))
}

func parseCourtID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return 0, NewInvalidRequestError("court id must be a number")
	}
	return id, nil
}
