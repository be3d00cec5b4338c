package storage

import (
	"context"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// SessionStore is the shared fast store behind live sessions.
// Every method must be atomic on its own; the lease and queue protocols depend on it.
type SessionStore interface {
	// Session records
	SaveSession(ctx context.Context, rec *model.SessionRecord) error
	GetSession(ctx context.Context, id model.SessionID) (*model.SessionRecord, error)
	DeleteSession(ctx context.Context, id model.SessionID) error

	// Leases: set-if-absent with expiry, released only by the owner that set them
	AcquireLease(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, key, owner string) error

	// Matchmaking queues
	Enqueue(ctx context.Context, tier model.Tier, id model.PrincipalID) error
	RemoveFromQueues(ctx context.Context, id model.PrincipalID) error
	PopPair(ctx context.Context, tier model.Tier) ([]model.PrincipalID, error)
	QueueLength(ctx context.Context, tier model.Tier) (int64, error)

	// NextGuestSequence atomically increments the shared guest session counter
	NextGuestSequence(ctx context.Context) (int64, error)
}

// GameStore is the durable store for registered users and their finished games
type GameStore interface {
	// Users
	CreateUser(ctx context.Context, username, passwordHash string, createdAt time.Time) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// Games
	CreateGame(ctx context.Context, white, black model.PrincipalID, createdAt time.Time) (*model.PersistedGame, error)
	FinishGame(ctx context.Context, id int64, outcome model.GameOutcome) error
	GetGame(ctx context.Context, id int64) (*model.PersistedGame, error)
	ListGamesForPrincipal(ctx context.Context, id model.PrincipalID, limit int) ([]*model.PersistedGame, error)
}
