package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brawl-tracker/internal/api"
	"brawl-tracker/internal/constants"
	"brawl-tracker/internal/domain"
	"brawl-tracker/internal/metrics"
	"brawl-tracker/internal/store"

	"github.com/rs/zerolog"
)

// BattleLogClient is the upstream feed as the reconciler sees it.
type BattleLogClient interface {
	BattleLog(ctx context.Context, tag string) ([]api.BattleEntry, error)
}

// Reconciler ingests new friendly matches for every tracked player. One
// cycle: re-read roster, one full store read to build the existing-key set,
// per-player fetch+normalize, one batched append of everything new.
type Reconciler struct {
	client  BattleLogClient
	store   store.Store
	roster  store.Roster
	logger  zerolog.Logger
	metrics *metrics.Metrics

	sleep      func(time.Duration)
	cooldown   time.Duration
	retryLimit int
}

func NewReconciler(client BattleLogClient, st store.Store, roster store.Roster, m *metrics.Metrics, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		client:     client,
		store:      st,
		roster:     roster,
		logger:     logger,
		metrics:    m,
		sleep:      time.Sleep,
		cooldown:   constants.UpstreamCooldown,
		retryLimit: constants.UpstreamRetryLimit,
	}
}

// Reconcile runs one ingestion cycle and returns the number of newly added
// records. Zero is a normal outcome. A single player's upstream failure is
// logged and skipped; roster or store failures abort the cycle.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	players, err := r.roster.Players(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading roster: %w", err)
	}

	existing, err := r.store.ReadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading store: %w", err)
	}

	seen := make(map[domain.MatchKey]struct{}, len(existing))
	for _, rec := range existing {
		seen[rec.Key()] = struct{}{}
	}

	var staged []domain.MatchRecord
	for _, player := range players {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		entries, err := r.fetch(ctx, player.Tag)
		if err != nil {
			r.metrics.UpstreamErrors.Inc()
			r.logger.Error().
				Err(err).
				Str("tag", player.Tag).
				Msg("battlelog fetch failed, skipping player this cycle")
			continue
		}

		fresh := 0
		for _, entry := range entries {
			rec, ok := Normalize(entry, player.Tag)
			if !ok {
				continue
			}
			if _, dup := seen[rec.Key()]; dup {
				continue
			}
			seen[rec.Key()] = struct{}{}
			staged = append(staged, rec)
			fresh++
		}

		r.logger.Debug().
			Str("tag", player.Tag).
			Int("entries", len(entries)).
			Int("new", fresh).
			Msg("battlelog processed")
	}

	if len(staged) > 0 {
		if err := r.store.Append(ctx, staged); err != nil {
			return 0, fmt.Errorf("appending %d records: %w", len(staged), err)
		}
		r.metrics.RecordsIngested.Add(float64(len(staged)))
	}

	r.logger.Info().
		Int("players", len(players)).
		Int("added", len(staged)).
		Msg("reconcile complete")
	return len(staged), nil
}

// fetch retries a rate-limited player after a cooldown, resuming from the
// same player, up to retryLimit attempts. Any other failure is returned to
// the per-player skip path.
func (r *Reconciler) fetch(ctx context.Context, tag string) ([]api.BattleEntry, error) {
	for attempt := 0; ; attempt++ {
		entries, err := r.client.BattleLog(ctx, tag)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, api.ErrRateLimited) || attempt >= r.retryLimit {
			return nil, err
		}

		r.logger.Warn().
			Str("tag", tag).
			Dur("cooldown", r.cooldown).
			Msg("upstream rate limited, pausing reconciliation")
		r.sleep(r.cooldown)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
}
