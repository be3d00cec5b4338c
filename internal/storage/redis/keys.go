package redis

import (
	"fmt"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// Key prefix for all session-related data
const keyPrefix = "chess"

// sessionKey returns the Redis key for a SessionRecord
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// leaseKey namespaces a lease name
func leaseKey(name string) string {
	return fmt.Sprintf("%s:lock:%s", keyPrefix, name)
}

// queueKey returns the Redis LIST holding the matchmaking queue for a tier.
// New entries are LPUSHed, the oldest are RPOPed.
func queueKey(tier model.Tier) string {
	return fmt.Sprintf("%s:queue:%s", keyPrefix, tier)
}

// guestSequenceKey returns the counter used to allocate guest session ids
func guestSequenceKey() string {
	return fmt.Sprintf("%s:seq:guest_session", keyPrefix)
}
