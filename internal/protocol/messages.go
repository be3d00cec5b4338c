package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// Inbound message types. Termination messages use the reason as their type.
const (
	TypeAuth      = "auth"
	TypeFindMatch = "find_match"
	TypeMove      = "move"
)

// Errors
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
)

// Message is one decoded inbound message
type Message interface {
	// Type returns the wire type tag
	Type() string
}

// AuthMessage binds the connection to a principal
type AuthMessage struct {
	Token string `json:"token"`
}

// FindMatchMessage queues the principal for pairing
type FindMatchMessage struct{}

// MoveMessage submits a move in a session
type MoveMessage struct {
	SessionID model.SessionID `json:"sessionId"`
	Move      model.MoveInput `json:"move"`
}

// TerminateMessage ends a session for a reason
type TerminateMessage struct {
	SessionID model.SessionID         `json:"sessionId"`
	Reason    model.TerminationReason `json:"-"`
}

func (AuthMessage) Type() string        { return TypeAuth }
func (FindMatchMessage) Type() string   { return TypeFindMatch }
func (MoveMessage) Type() string        { return TypeMove }
func (m TerminateMessage) Type() string { return string(m.Reason) }

// Decode parses a JSON text frame into its message variant
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch {
	case envelope.Type == TypeAuth:
		var msg AuthMessage
		return decodeInto(data, &msg)
	case envelope.Type == TypeFindMatch:
		return FindMatchMessage{}, nil
	case envelope.Type == TypeMove:
		var msg MoveMessage
		return decodeInto(data, &msg)
	case model.IsTerminationReason(envelope.Type):
		msg := TerminateMessage{Reason: model.TerminationReason(envelope.Type)}
		return decodeInto(data, &msg)
	case envelope.Type == "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, envelope.Type)
	}
}

func decodeInto[T Message](data []byte, msg *T) (Message, error) {
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	return *msg, nil
}
