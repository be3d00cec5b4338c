package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/connections"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/lease"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/rules"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// genericErrorMessage is what participants see for unexpected failures
const genericErrorMessage = "An error occurred."

// RulesEngine knows legal moves and terminal conditions
type RulesEngine interface {
	Restore(fen string, moves []string) (*rules.Position, error)
	Apply(pos *rules.Position, uci string) error
	IsCheckmate(pos *rules.Position) bool
	IsDraw(pos *rules.Position) bool
	Serialize(pos *rules.Position) string
	SideToMove(pos *rules.Position) model.Side
	Notation(moves []string) (string, error)
}

// Controller drives live sessions: moves, clocks and termination.
// Every mutation of a session record happens under that session's lease.
type Controller struct {
	store       storage.SessionStore
	games       storage.GameStore
	leases      *lease.Manager
	connections *connections.Registry
	rules       RulesEngine
	clock       clock.Clock
	logger      *slog.Logger
}

// NewController creates a new Controller
func NewController(
	store storage.SessionStore,
	games storage.GameStore,
	leases *lease.Manager,
	conns *connections.Registry,
	engine RulesEngine,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		store:       store,
		games:       games,
		leases:      leases,
		connections: conns,
		rules:       engine,
		clock:       clock,
		logger:      logger.With(slog.String("component", "game")),
	}
}

// State reports where a session is in its lifecycle. A session with no record is terminated.
func (c *Controller) State(ctx context.Context, id model.SessionID) (model.SessionState, error) {
	rec, err := c.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return model.SessionStateTerminated, nil
		}
		return "", err
	}
	return rec.State, nil
}

// Snapshot returns the live record for one of its participants
func (c *Controller) Snapshot(ctx context.Context, actor model.PrincipalID, id model.SessionID) (*model.SessionRecord, error) {
	rec, err := c.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.IsParticipant(actor) {
		return nil, model.ErrNotAParticipant
	}
	return rec, nil
}

// broadcast sends msg to both participants; missing connections are logged by the registry
func (c *Controller) broadcast(rec *model.SessionRecord, msg any) {
	for _, id := range rec.Participants() {
		c.connections.Notify(id, msg)
	}
}

// fail reports an unexpected failure to both participants and marks it as already reported
func (c *Controller) fail(rec *model.SessionRecord, op string, err error) error {
	c.logger.Error("session operation failed",
		slog.String("session_id", string(rec.ID)),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	c.broadcast(rec, model.NewError(genericErrorMessage))
	return fmt.Errorf("%w: %s: %w", model.ErrSessionFailed, op, err)
}

// acquire takes the session lease. A nil lease with nil error means contention.
func (c *Controller) acquire(ctx context.Context, id model.SessionID) (*lease.Lease, error) {
	held, err := c.leases.AcquireSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrLeaseUnavailable) {
			c.logger.Debug("session busy, dropping request", slog.String("session_id", string(id)))
			return nil, nil
		}
		return nil, err
	}
	return held, nil
}

// load reads the session record. A nil record with nil error means the session is gone.
func (c *Controller) load(ctx context.Context, id model.SessionID) (*model.SessionRecord, error) {
	rec, err := c.store.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			c.logger.Debug("session not found", slog.String("session_id", string(id)))
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return rec, nil
}
