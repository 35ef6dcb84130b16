package sync

import (
	"context"
	"fmt"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/metrics"
	"brawl-tracker/internal/store"

	"github.com/rs/zerolog"
)

// Sweeper enforces the rolling retention window: everything older than
// now - retention is purged by rewriting the store with the kept partition.
type Sweeper struct {
	store     store.Store
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	retention time.Duration
}

func NewSweeper(st store.Store, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:     st,
		logger:    logger,
		metrics:   m,
		retention: cfg.Retention,
	}
}

// Sweep runs one retention pass and returns the number of expired records.
// Rows that fail to parse were already excluded by ReadAll, so a rewrite also
// purges them. The store is only rewritten when something actually expired,
// which makes back-to-back sweeps a no-op on the second call.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	records, err := s.store.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading store: %w", err)
	}

	cutoff := now.Add(-s.retention)
	keep := make([]domain.MatchRecord, 0, len(records))
	expired := 0
	for _, rec := range records {
		if rec.BattleTime.Before(cutoff) {
			expired++
			continue
		}
		keep = append(keep, rec)
	}

	if expired == 0 {
		s.logger.Debug().Int("records", len(records)).Msg("sweep found nothing to expire")
		return 0, nil
	}

	if err := s.store.Overwrite(ctx, keep); err != nil {
		return 0, fmt.Errorf("rewriting store with %d kept records: %w", len(keep), err)
	}

	s.metrics.RecordsExpired.Add(float64(expired))
	s.logger.Info().
		Int("expired", expired).
		Int("kept", len(keep)).
		Time("cutoff", cutoff).
		Msg("retention sweep complete")
	return expired, nil
}
