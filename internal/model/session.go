package model

import "time"

// SessionID uniquely identifies a live session
type SessionID string

// Side is the colour a principal plays, encoded the way positions encode the side to move
type Side string

const (
	SideWhite Side = "w"
	SideBlack Side = "b"
)

// Opponent returns the other side
func (s Side) Opponent() Side {
	if s == SideWhite {
		return SideBlack
	}
	return SideWhite
}

// Name returns the long form used in game_over winners
func (s Side) Name() string {
	switch s {
	case SideWhite:
		return WinnerWhite
	case SideBlack:
		return WinnerBlack
	default:
		return WinnerNone
	}
}

// SessionState is the lifecycle phase of a session
type SessionState string

const (
	SessionStateWaiting    SessionState = "waiting"    // principals queued, no record yet
	SessionStateActive     SessionState = "active"     // record exists, mutable under lease
	SessionStateTerminated SessionState = "terminated" // record deleted, no further transitions
)

// CanTransition reports whether the lifecycle allows moving from one state to another.
// Active may loop on itself (each accepted move); terminated is final.
func CanTransition(from, to SessionState) bool {
	switch from {
	case SessionStateWaiting:
		return to == SessionStateActive
	case SessionStateActive:
		return to == SessionStateActive || to == SessionStateTerminated
	default:
		return false
	}
}

// SessionRecord is the mutable shared state of one live session.
// It lives in the fast store and is only written by the holder of the session lease.
type SessionRecord struct {
	ID     SessionID   `json:"id"`
	White  PrincipalID `json:"white"`
	Black  PrincipalID `json:"black"`
	Tier   Tier        `json:"tier"`
	GameID int64       `json:"game_id,omitempty"` // persisted game, 0 for guest sessions

	FEN   string   `json:"fen"`
	Turn  Side     `json:"turn"`
	Moves []string `json:"moves"` // accepted moves in UCI notation

	WhiteTimeMs int64     `json:"white_time_ms"`
	BlackTimeMs int64     `json:"black_time_ms"`
	LastMoveAt  time.Time `json:"last_move_at"`

	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
}

// IsGuest returns true if the session is not backed by a persisted game
func (r *SessionRecord) IsGuest() bool {
	return r.Tier == TierGuest
}

// PrincipalFor returns the principal playing the given side
func (r *SessionRecord) PrincipalFor(side Side) PrincipalID {
	if side == SideWhite {
		return r.White
	}
	return r.Black
}

// SideOf returns the side played by a principal and whether it participates at all
func (r *SessionRecord) SideOf(id PrincipalID) (Side, bool) {
	switch id {
	case r.White:
		return SideWhite, true
	case r.Black:
		return SideBlack, true
	default:
		return "", false
	}
}

// IsParticipant returns true if the principal is one of the two players
func (r *SessionRecord) IsParticipant(id PrincipalID) bool {
	_, ok := r.SideOf(id)
	return ok
}

// RemainingMs returns the clock budget left for a side
func (r *SessionRecord) RemainingMs(side Side) int64 {
	if side == SideWhite {
		return r.WhiteTimeMs
	}
	return r.BlackTimeMs
}

// SetRemainingMs updates the clock budget for a side
func (r *SessionRecord) SetRemainingMs(side Side, ms int64) {
	if side == SideWhite {
		r.WhiteTimeMs = ms
	} else {
		r.BlackTimeMs = ms
	}
}

// Participants returns white then black
func (r *SessionRecord) Participants() []PrincipalID {
	return []PrincipalID{r.White, r.Black}
}
