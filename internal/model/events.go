package model

import "strings"

// EventType identifies an outbound message
type EventType string

const (
	EventAuthSuccess EventType = "auth_success"
	EventGameStart   EventType = "game_start"
	EventMoveMade    EventType = "move_made"
	EventGameOver    EventType = "game_over"
	EventError       EventType = "error"
)

// MoveInput is a move as submitted by a client
type MoveInput struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI renders the move in UCI long algebraic form, e.g. e2e4 or e7e8q
func (m MoveInput) UCI() string {
	return strings.ToLower(strings.TrimSpace(m.From) + strings.TrimSpace(m.To) + strings.TrimSpace(m.Promotion))
}

// AuthSuccessEvent confirms a connection is bound to a principal
type AuthSuccessEvent struct {
	Type        EventType   `json:"type"`
	PrincipalID PrincipalID `json:"principalId"`
	Tier        Tier        `json:"tier"`
}

// GameStartEvent tells a principal a session was formed and which side it plays
type GameStartEvent struct {
	Type        EventType `json:"type"`
	SessionID   SessionID `json:"sessionId"`
	Side        Side      `json:"side"`
	FEN         string    `json:"fen"`
	WhiteTimeMs int64     `json:"whiteTimeMs"`
	BlackTimeMs int64     `json:"blackTimeMs"`
}

// MoveMadeEvent is broadcast to both participants after an accepted move
type MoveMadeEvent struct {
	Type        EventType `json:"type"`
	SessionID   SessionID `json:"sessionId"`
	Move        MoveInput `json:"move"`
	FEN         string    `json:"fen"`
	Turn        Side      `json:"turn"`
	WhiteTimeMs int64     `json:"whiteTimeMs"`
	BlackTimeMs int64     `json:"blackTimeMs"`
}

// GameOverEvent is broadcast to both participants when a session terminates
type GameOverEvent struct {
	Type      EventType         `json:"type"`
	SessionID SessionID         `json:"sessionId"`
	Reason    TerminationReason `json:"reason"`
	Winner    string            `json:"winner"`
	Result    string            `json:"result"`
}

// ErrorEvent reports a failure without detail
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// NewAuthSuccess builds an auth_success event
func NewAuthSuccess(p Principal) AuthSuccessEvent {
	return AuthSuccessEvent{Type: EventAuthSuccess, PrincipalID: p.ID, Tier: p.Tier}
}

// NewGameStart builds the game_start event for one side of a new session
func NewGameStart(rec *SessionRecord, side Side) GameStartEvent {
	return GameStartEvent{
		Type:        EventGameStart,
		SessionID:   rec.ID,
		Side:        side,
		FEN:         rec.FEN,
		WhiteTimeMs: rec.WhiteTimeMs,
		BlackTimeMs: rec.BlackTimeMs,
	}
}

// NewMoveMade builds the move_made event from the updated record
func NewMoveMade(rec *SessionRecord, move MoveInput) MoveMadeEvent {
	return MoveMadeEvent{
		Type:        EventMoveMade,
		SessionID:   rec.ID,
		Move:        move,
		FEN:         rec.FEN,
		Turn:        rec.Turn,
		WhiteTimeMs: rec.WhiteTimeMs,
		BlackTimeMs: rec.BlackTimeMs,
	}
}

// NewGameOver builds a game_over event; the winner is derived from the result
func NewGameOver(id SessionID, reason TerminationReason, result string) GameOverEvent {
	return GameOverEvent{
		Type:      EventGameOver,
		SessionID: id,
		Reason:    reason,
		Winner:    WinnerFromResult(result),
		Result:    result,
	}
}

// NewError builds an error event
func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}
