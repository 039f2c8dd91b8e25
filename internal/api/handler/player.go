package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/badminton-pairing/internal/api/request"
	"github.com/mcoot/badminton-pairing/internal/api/response"
	"github.com/mcoot/badminton-pairing/internal/model"
	"github.com/mcoot/badminton-pairing/internal/services/session"
)

// PlayerHandler handles roster endpoints
type PlayerHandler struct {
	controller session.ControllerInterface
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller session.ControllerInterface) *PlayerHandler {
	return &PlayerHandler{
		controller: controller,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayersFromModel(snap.Players))
}

// Add handles POST /api/v1/players
func (h *PlayerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req request.AddPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if req.Level == nil {
		WriteError(w, NewInvalidRequestError("level is required"))
		return
	}

	player, err := h.controller.AddPlayer(r.Context(), req.Name, *req.Level)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// Edit handles PATCH /api/v1/players/{id}
func (h *PlayerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req request.EditPlayerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.controller.EditPlayer(r.Context(), playerID(r), session.PlayerUpdate{
		Level:         req.Level,
		GamesPlayed:   req.GamesPlayed,
		WaitingRounds: req.WaitingRounds,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Remove handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.RemovePlayer(r.Context(), playerID(r)); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ToggleResting handles POST /api/v1/players/{id}/rest
func (h *PlayerHandler) ToggleResting(w http.ResponseWriter, r *http.Request) {
	player, err := h.controller.ToggleResting(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Import handles POST /api/v1/players/import. The body is a YAML or JSON
// list of player records.
func (h *PlayerHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		WriteError(w, err)
		return
	}

	report, err := h.controller.ImportPlayers(r.Context(), data)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ImportReportFromModel(report))
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}
