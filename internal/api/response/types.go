package response

import (
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/auth"
)

// Principal represents an authenticated identity in API responses
type Principal struct {
	ID       string `json:"id"`
	Tier     string `json:"tier"`
	Username string `json:"username,omitempty"`
	IsGuest  bool   `json:"is_guest"`
}

// PrincipalFromModel converts a model.Principal to a response Principal
func PrincipalFromModel(p *model.Principal) Principal {
	return Principal{
		ID:       string(p.ID),
		Tier:     string(p.Tier),
		Username: p.Username,
		IsGuest:  p.IsGuest(),
	}
}

// AuthResponse is the response for credential-issuing endpoints
type AuthResponse struct {
	Token     string    `json:"token"`
	Principal Principal `json:"principal"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthResponseFromGrant creates an AuthResponse from an issued grant
func AuthResponseFromGrant(g *auth.Grant) AuthResponse {
	return AuthResponse{
		Token:     g.Token,
		Principal: PrincipalFromModel(&g.Principal),
		ExpiresAt: g.ExpiresAt,
	}
}

// Game represents a persisted game in API responses
type Game struct {
	ID         int64      `json:"id"`
	White      string     `json:"white"`
	Black      string     `json:"black"`
	Status     string     `json:"status"`
	Result     string     `json:"result,omitempty"`
	Notation   string     `json:"notation,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// GameFromModel converts model.PersistedGame
func GameFromModel(g *model.PersistedGame) Game {
	return Game{
		ID:         g.ID,
		White:      string(g.White),
		Black:      string(g.Black),
		Status:     string(g.Status),
		Result:     g.Result,
		Notation:   g.Notation,
		CreatedAt:  g.CreatedAt,
		FinishedAt: g.FinishedAt,
	}
}

// GameList is the response for game history
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModel converts a list of persisted games
func GameListFromModel(games []*model.PersistedGame) GameList {
	out := make([]Game, len(games))
	for i, g := range games {
		out[i] = GameFromModel(g)
	}
	return GameList{Games: out}
}

// Session represents a live session snapshot
type Session struct {
	ID          string   `json:"id"`
	State       string   `json:"state"`
	Tier        string   `json:"tier"`
	White       string   `json:"white"`
	Black       string   `json:"black"`
	FEN         string   `json:"fen"`
	Turn        string   `json:"turn"`
	Moves       []string `json:"moves"`
	WhiteTimeMs int64    `json:"white_time_ms"`
	BlackTimeMs int64    `json:"black_time_ms"`
}

// SessionFromModel converts model.SessionRecord, reporting the given lifecycle state
func SessionFromModel(rec *model.SessionRecord, state model.SessionState) Session {
	moves := rec.Moves
	if moves == nil {
		moves = []string{}
	}
	return Session{
		ID:          string(rec.ID),
		State:       string(state),
		Tier:        string(rec.Tier),
		White:       string(rec.White),
		Black:       string(rec.Black),
		FEN:         rec.FEN,
		Turn:        string(rec.Turn),
		Moves:       moves,
		WhiteTimeMs: rec.WhiteTimeMs,
		BlackTimeMs: rec.BlackTimeMs,
	}
}
