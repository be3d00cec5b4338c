package model

import (
	"fmt"
	"strconv"
	"strings"
)

const guestSessionPrefix = "g"

// RegisteredPrincipalID converts a durable user id into a principal id
func RegisteredPrincipalID(userID int64) PrincipalID {
	return PrincipalID(strconv.FormatInt(userID, 10))
}

// UserIDFromPrincipal parses the durable user id out of a registered principal id
func UserIDFromPrincipal(id PrincipalID) (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("principal %q is not a registered user: %w", id, err)
	}
	return n, nil
}

// RegisteredSessionID derives the session id from its persisted game id
func RegisteredSessionID(gameID int64) SessionID {
	return SessionID(strconv.FormatInt(gameID, 10))
}

// GuestSessionID derives a guest session id from the shared guest counter.
// The prefix keeps guest ids disjoint from persisted game ids.
func GuestSessionID(seq int64) SessionID {
	return SessionID(guestSessionPrefix + strconv.FormatInt(seq, 10))
}

// IsGuestSessionID reports whether the id was allocated from the guest counter
func IsGuestSessionID(id SessionID) bool {
	return strings.HasPrefix(string(id), guestSessionPrefix)
}
