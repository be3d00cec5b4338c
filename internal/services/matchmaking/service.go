package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/random"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/connections"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/lease"
	"github.com/IsbatBInHossain/chess-game-server/internal/services/rules"
	"github.com/IsbatBInHossain/chess-game-server/internal/storage"
)

// Config holds matchmaking settings
type Config struct {
	// InitialClock is each side's starting time budget
	InitialClock time.Duration
}

// DefaultConfig returns five-minute clocks
func DefaultConfig() Config {
	return Config{
		InitialClock: 5 * time.Minute,
	}
}

// Service pairs waiting principals into sessions
type Service struct {
	store       storage.SessionStore
	games       storage.GameStore
	leases      *lease.Manager
	connections *connections.Registry
	clock       clock.Clock
	random      random.Random
	cfg         Config
	logger      *slog.Logger
}

// New creates a matchmaking Service
func New(
	store storage.SessionStore,
	games storage.GameStore,
	leases *lease.Manager,
	conns *connections.Registry,
	clk clock.Clock,
	rng random.Random,
	cfg Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:       store,
		games:       games,
		leases:      leases,
		connections: conns,
		clock:       clk,
		random:      rng,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "matchmaking")),
	}
}

// Enqueue places the principal at the back of its tier's queue,
// dropping any earlier entry it had in either queue.
func (s *Service) Enqueue(ctx context.Context, id model.PrincipalID, tier model.Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("unknown tier %q", tier)
	}
	if err := s.store.Enqueue(ctx, tier, id); err != nil {
		return fmt.Errorf("enqueue %s: %w", id, err)
	}
	s.logger.Debug("principal queued",
		slog.String("principal_id", string(id)),
		slog.String("tier", string(tier)),
	)
	return nil
}

// Remove takes the principal out of every queue
func (s *Service) Remove(ctx context.Context, id model.PrincipalID) error {
	return s.store.RemoveFromQueues(ctx, id)
}

// QueueLength returns how many principals wait in a tier
func (s *Service) QueueLength(ctx context.Context, tier model.Tier) (int64, error) {
	return s.store.QueueLength(ctx, tier)
}

// AttemptPair forms at most one session from the two oldest entries in the tier's queue.
// It returns nil without error when another attempt holds the pairing lease or
// fewer than two principals are waiting.
func (s *Service) AttemptPair(ctx context.Context, tier model.Tier) (*model.SessionRecord, error) {
	held, err := s.leases.AcquireMatchmaking(ctx)
	if err != nil {
		if errors.Is(err, model.ErrLeaseUnavailable) {
			s.logger.Debug("pairing already in progress", slog.String("tier", string(tier)))
			return nil, nil
		}
		return nil, err
	}
	defer s.leases.Release(ctx, held)

	pair, err := s.store.PopPair(ctx, tier)
	if err != nil {
		return nil, fmt.Errorf("pop pair: %w", err)
	}
	if len(pair) < 2 {
		return nil, nil
	}

	white, black := pair[0], pair[1]
	if random.CoinFlip(s.random) {
		white, black = black, white
	}

	rec, err := s.createSession(ctx, tier, white, black)
	if err != nil {
		s.logger.Error("failed to create session",
			slog.String("white", string(white)),
			slog.String("black", string(black)),
			slog.String("error", err.Error()),
		)
		// The pair has left the queue; tell both so they can search again
		for _, id := range pair {
			s.connections.Notify(id, model.NewError("could not start a match, please search again"))
		}
		return nil, err
	}

	s.logger.Info("session started",
		slog.String("session_id", string(rec.ID)),
		slog.String("tier", string(tier)),
		slog.String("white", string(white)),
		slog.String("black", string(black)),
	)

	// A missing connection is logged by Notify; the match is not rolled back
	s.connections.Notify(white, model.NewGameStart(rec, model.SideWhite))
	s.connections.Notify(black, model.NewGameStart(rec, model.SideBlack))

	return rec, nil
}

func (s *Service) createSession(ctx context.Context, tier model.Tier, white, black model.PrincipalID) (*model.SessionRecord, error) {
	now := s.clock.Now()

	rec := &model.SessionRecord{
		White:       white,
		Black:       black,
		Tier:        tier,
		FEN:         rules.StartFEN,
		Turn:        model.SideWhite,
		Moves:       []string{},
		WhiteTimeMs: s.cfg.InitialClock.Milliseconds(),
		BlackTimeMs: s.cfg.InitialClock.Milliseconds(),
		LastMoveAt:  now,
		State:       model.SessionStateActive,
		CreatedAt:   now,
	}

	if tier == model.TierRegistered {
		game, err := s.games.CreateGame(ctx, white, black, now)
		if err != nil {
			return nil, fmt.Errorf("create game: %w", err)
		}
		rec.GameID = game.ID
		rec.ID = model.RegisteredSessionID(game.ID)
	} else {
		seq, err := s.store.NextGuestSequence(ctx)
		if err != nil {
			return nil, fmt.Errorf("allocate guest session: %w", err)
		}
		rec.ID = model.GuestSessionID(seq)
	}

	if err := s.store.SaveSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return rec, nil
}
