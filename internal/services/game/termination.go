package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// Terminate ends a session for the given reason on behalf of one of its participants.
// Contention, a missing session and a non-participant actor are silent no-ops,
// so a second termination of the same session does nothing.
func (c *Controller) Terminate(ctx context.Context, actor model.PrincipalID, id model.SessionID, reason model.TerminationReason) error {
	held, err := c.acquire(ctx, id)
	if err != nil || held == nil {
		return err
	}
	defer c.leases.Release(ctx, held)

	rec, err := c.load(ctx, id)
	if err != nil || rec == nil {
		return err
	}

	if !rec.IsParticipant(actor) {
		c.logger.Debug("termination from non-participant ignored",
			slog.String("session_id", string(id)),
			slog.String("principal_id", string(actor)),
		)
		return nil
	}

	return c.finish(ctx, rec, actor, reason)
}

// finish records the outcome and removes the session. The caller holds the session lease.
func (c *Controller) finish(ctx context.Context, rec *model.SessionRecord, actor model.PrincipalID, reason model.TerminationReason) error {
	acting, _ := rec.SideOf(actor)
	result, status := Outcome(reason, acting)

	c.broadcast(rec, model.NewGameOver(rec.ID, reason, result))

	var failure error
	if !rec.IsGuest() {
		if err := c.persistOutcome(ctx, rec, result, status); err != nil {
			failure = c.fail(rec, "persist outcome", err)
		}
	}

	if err := c.store.DeleteSession(ctx, rec.ID); err != nil {
		failure = errors.Join(failure, c.fail(rec, "delete session", err))
	}

	c.logger.Info("session terminated",
		slog.String("session_id", string(rec.ID)),
		slog.String("reason", string(reason)),
		slog.String("result", result),
		slog.String("status", string(status)),
	)

	return failure
}

func (c *Controller) persistOutcome(ctx context.Context, rec *model.SessionRecord, result string, status model.GameStatus) error {
	notation, err := c.rules.Notation(rec.Moves)
	if err != nil {
		// The result still matters more than the move list
		c.logger.Warn("failed to export notation",
			slog.String("session_id", string(rec.ID)),
			slog.String("error", err.Error()),
		)
		notation = ""
	}

	err = c.games.FinishGame(ctx, rec.GameID, model.GameOutcome{
		Result:     result,
		Status:     status,
		Notation:   notation,
		FinishedAt: c.clock.Now(),
	})
	if errors.Is(err, model.ErrGameAlreadyFinished) {
		c.logger.Warn("persisted game already finished",
			slog.String("session_id", string(rec.ID)),
			slog.Int64("game_id", rec.GameID),
		)
		return nil
	}
	return err
}
