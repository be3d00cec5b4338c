package model

import "time"

// PrincipalID uniquely identifies an authenticated identity across the system
type PrincipalID string

// Tier distinguishes durable registered accounts from one-off guests
type Tier string

const (
	TierRegistered Tier = "registered"
	TierGuest      Tier = "guest"
)

// Valid reports whether the tier is one of the known tiers
func (t Tier) Valid() bool {
	return t == TierRegistered || t == TierGuest
}

// Tiers returns every tier that has its own matchmaking queue
func Tiers() []Tier {
	return []Tier{TierRegistered, TierGuest}
}

// Principal is an authenticated identity
type Principal struct {
	ID       PrincipalID `json:"id"`
	Tier     Tier        `json:"tier"`
	Username string      `json:"username,omitempty"` // empty for guests
}

// IsGuest returns true for transient principals
func (p Principal) IsGuest() bool {
	return p.Tier == TierGuest
}

// User is the durable record behind a registered principal
type User struct {
	ID           int64
	Username     string // public handle, unique
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// PrincipalID returns the principal identifier for this user
func (u *User) PrincipalID() PrincipalID {
	return RegisteredPrincipalID(u.ID)
}

// Principal returns the registered principal for this user
func (u *User) Principal() Principal {
	return Principal{
		ID:       u.PrincipalID(),
		Tier:     TierRegistered,
		Username: u.Username,
	}
}
