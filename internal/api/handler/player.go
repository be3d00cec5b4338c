package handler

import (
	"net/http"

	"github.com/IsbatBInHossain/chess-game-server/internal/api/middleware"
	"github.com/IsbatBInHossain/chess-game-server/internal/api/request"
	"github.com/IsbatBInHossain/chess-game-server/internal/api/response"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	authService *auth.Service
	games       storage.GameStore
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, games storage.GameStore) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		games:       games,
	}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *PlayerHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	grant, err := h.authService.CreateGuest(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	writeGrant(w, http.StatusCreated, grant)
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeCredentials(r.Body)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	grant, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeGrant(w, http.StatusCreated, grant)
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := request.DecodeCredentials(r.Body)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	grant, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeGrant(w, http.StatusOK, grant)
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())

	profile, err := h.authService.Profile(r.Context(), *principal)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PrincipalFromModel(profile))
}

// ListGames handles GET /api/v1/players/me/games
func (h *PlayerHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	principal := middleware.MustGetPrincipal(r.Context())

	limit, err := request.HistoryLimit(r.URL.Query())
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	// Guests never have persisted games
	if principal.IsGuest() {
		response.JSON(w, http.StatusOK, response.GameListFromModel(nil))
		return
	}

	games, err := h.games.ListGamesForPrincipal(r.Context(), principal.ID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModel(games))
}

func writeGrant(w http.ResponseWriter, status int, grant *auth.Grant) {
	response.Credential(w, status, response.AuthResponseFromGrant(grant))
}
