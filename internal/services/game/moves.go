package game

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// ApplyMove validates and applies one move for the acting principal.
//
// Contention, a missing session, a wrong-turn or non-participant actor and an
// illegal move are all silent no-ops returning nil. A move submitted after the
// mover's clock ran out ends the session on timeout instead of being applied.
func (c *Controller) ApplyMove(ctx context.Context, actor model.PrincipalID, id model.SessionID, move model.MoveInput) error {
	held, err := c.acquire(ctx, id)
	if err != nil || held == nil {
		return err
	}
	defer c.leases.Release(ctx, held)

	rec, err := c.load(ctx, id)
	if err != nil || rec == nil {
		return err
	}

	side, ok := rec.SideOf(actor)
	if !ok {
		c.logger.Debug("move from non-participant ignored",
			slog.String("session_id", string(id)),
			slog.String("principal_id", string(actor)),
		)
		return nil
	}
	if side != rec.Turn {
		c.logger.Debug("move out of turn ignored",
			slog.String("session_id", string(id)),
			slog.String("principal_id", string(actor)),
		)
		return nil
	}

	now := c.clock.Now()
	elapsed := clock.Elapsed(c.clock, rec.LastMoveAt).Milliseconds()
	remaining := rec.RemainingMs(side)
	if elapsed > remaining {
		// The side that ran out loses
		return c.finish(ctx, rec, actor, model.ReasonTimeout)
	}

	uci := move.UCI()
	if n := len(uci); n != 4 && n != 5 {
		c.logger.Debug("malformed move ignored",
			slog.String("session_id", string(id)),
			slog.String("move", uci),
		)
		return nil
	}

	pos, err := c.rules.Restore(rec.FEN, rec.Moves)
	if err != nil {
		return c.fail(rec, "load position", err)
	}
	if err := c.rules.Apply(pos, uci); err != nil {
		if errors.Is(err, model.ErrIllegalMove) {
			c.logger.Debug("illegal move ignored",
				slog.String("session_id", string(id)),
				slog.String("move", uci),
			)
			return nil
		}
		return c.fail(rec, "apply move", err)
	}

	rec.SetRemainingMs(side, remaining-elapsed)
	rec.LastMoveAt = now
	rec.FEN = c.rules.Serialize(pos)
	rec.Turn = c.rules.SideToMove(pos)
	rec.Moves = append(rec.Moves, uci)

	switch {
	case c.rules.IsCheckmate(pos):
		// Framed from the mated side, so the mover wins
		return c.finish(ctx, rec, rec.PrincipalFor(side.Opponent()), model.ReasonCheckmate)
	case c.rules.IsDraw(pos):
		return c.finish(ctx, rec, actor, model.ReasonDraw)
	}

	if !model.CanTransition(rec.State, model.SessionStateActive) {
		return c.fail(rec, "apply move", errors.New("session is not active"))
	}
	if err := c.store.SaveSession(ctx, rec); err != nil {
		return c.fail(rec, "save session", err)
	}

	c.logger.Debug("move applied",
		slog.String("session_id", string(id)),
		slog.String("move", uci),
		slog.Int64("white_time_ms", rec.WhiteTimeMs),
		slog.Int64("black_time_ms", rec.BlackTimeMs),
	)

	c.broadcast(rec, model.NewMoveMade(rec, move))
	return nil
}
