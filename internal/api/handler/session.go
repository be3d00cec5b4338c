package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/IsbatBInHossain/chess-game-server/internal/api/middleware"
	"github.com/IsbatBInHossain/chess-game-server/internal/api/response"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/game"
)

// SessionHandler exposes read-only views of live sessions
type SessionHandler struct {
	gameController *game.Controller
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(gameController *game.Controller) *SessionHandler {
	return &SessionHandler{gameController: gameController}
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())
	id := model.SessionID(mux.Vars(r)["id"])

	rec, err := h.gameController.Snapshot(r.Context(), principal.ID, id)
	if err != nil {
		WriteError(w, err)
		return
	}

	// The record may have been terminated since it was read
	state, err := h.gameController.State(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(rec, state))
}
