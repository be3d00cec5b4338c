package model

import "errors"

// Common errors used across the application
var (
	// Principal errors
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username is already taken")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrLeaseUnavailable = errors.New("lease is held by another actor")
	ErrNotYourTurn      = errors.New("not this principal's turn")
	ErrNotAParticipant  = errors.New("principal is not a participant in this session")
	ErrIllegalMove      = errors.New("illegal move")
	ErrInvalidMove      = errors.New("malformed move input")

	// ErrSessionFailed marks an unexpected failure that has already been reported
	// to both participants of the session.
	ErrSessionFailed = errors.New("session operation failed")

	// Persisted game errors
	ErrGameNotFound        = errors.New("game not found")
	ErrGameAlreadyFinished = errors.New("game already has a result")
)
