package matchmaking

import (
	"context"
	"log/slog"
	"time"

	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// maxPairsPerTick bounds how many sessions one tick forms per tier
const maxPairsPerTick = 64

// Runner periodically retries pairing so that attempts skipped under
// lease contention are picked up without waiting for another find_match.
type Runner struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner
func NewRunner(service *Service, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		service:  service,
		interval: interval,
		logger:   logger.With(slog.String("component", "matchmaking_runner")),
	}
}

// Run ticks until ctx is cancelled
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("matchmaking runner started", slog.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("matchmaking runner stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick drains each tier until no more pairs can be formed
func (r *Runner) Tick(ctx context.Context) int {
	formed := 0
	for _, tier := range model.Tiers() {
		for i := 0; i < maxPairsPerTick; i++ {
			rec, err := r.service.AttemptPair(ctx, tier)
			if err != nil {
				r.logger.Error("pairing attempt failed",
					slog.String("tier", string(tier)),
					slog.String("error", err.Error()),
				)
				break
			}
			if rec == nil {
				break
			}
			formed++
		}
	}
	return formed
}
