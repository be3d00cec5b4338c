package lease

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/random"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

const ownerTokenLength = 16

// Config holds lease settings
type Config struct {
	SessionTTL     time.Duration
	MatchmakingTTL time.Duration
}

// DefaultConfig returns the default lease TTLs
func DefaultConfig() Config {
	return Config{
		SessionTTL:     5 * time.Second,
		MatchmakingTTL: 5 * time.Second,
	}
}

// Lease is a held advisory marker. Only the owner token that set it can release it.
type Lease struct {
	Key   string
	Owner string
	TTL   time.Duration
}

// Manager acquires and releases leases in the session store
type Manager struct {
	store  storage.SessionStore
	random random.Random
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a lease manager
func NewManager(store storage.SessionStore, rng random.Random, cfg Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		random: rng,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "lease")),
	}
}

// SessionKey returns the lease key guarding one session record.
// Moves and terminations share it so at most one of them mutates the record at a time.
func SessionKey(id model.SessionID) string {
	return fmt.Sprintf("session:%s", id)
}

// MatchmakingKey returns the global pairing lease key
func MatchmakingKey() string {
	return "matchmaking"
}

// AcquireSession takes the lease for one session
func (m *Manager) AcquireSession(ctx context.Context, id model.SessionID) (*Lease, error) {
	return m.Acquire(ctx, SessionKey(id), m.cfg.SessionTTL)
}

// AcquireMatchmaking takes the global pairing lease
func (m *Manager) AcquireMatchmaking(ctx context.Context) (*Lease, error) {
	return m.Acquire(ctx, MatchmakingKey(), m.cfg.MatchmakingTTL)
}

// Acquire sets the lease if absent. Contention returns model.ErrLeaseUnavailable.
func (m *Manager) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	owner := random.Token(m.random, ownerTokenLength)
	ok, err := m.store.AcquireLease(ctx, key, owner, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, model.ErrLeaseUnavailable
	}
	return &Lease{Key: key, Owner: owner, TTL: ttl}, nil
}

// Release drops the lease if it is still ours. It runs even if ctx was cancelled,
// and failures are only logged since the lease expires on its own.
func (m *Manager) Release(ctx context.Context, l *Lease) {
	if l == nil {
		return
	}
	if err := m.store.ReleaseLease(context.WithoutCancel(ctx), l.Key, l.Owner); err != nil {
		m.logger.Warn("failed to release lease",
			slog.String("key", l.Key),
			slog.String("error", err.Error()),
		)
	}
}
