package sync

import (
	"context"
	"sync"
	"time"

	"brawl-tracker/internal/config"
	"brawl-tracker/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Coordinator owns the two periodic cycles and the store mutation right.
// Reconciliation runs on a short interval; the retention sweep fires once a
// day at a fixed UTC hour. Both take the same mutex for a full pass, so a
// sweep rewrite and a reconcile append can never interleave. A failed cycle
// is logged and backed off, never fatal to the process.
type Coordinator struct {
	reconciler *Reconciler
	sweeper    *Sweeper
	logger     zerolog.Logger
	metrics    *metrics.Metrics

	interval  time.Duration
	sweepHour int

	mu sync.Mutex
}

func NewCoordinator(r *Reconciler, s *Sweeper, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		reconciler: r,
		sweeper:    s,
		logger:     logger,
		metrics:    m,
		interval:   cfg.SyncInterval,
		sweepHour:  cfg.SweepHourUTC,
	}
}

// Run blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.reconcileLoop(ctx) })
	g.Go(func() error { return c.sweepLoop(ctx) })
	return g.Wait()
}

func (c *Coordinator) reconcileLoop(ctx context.Context) error {
	bo := newCycleBackoff(c.interval)
	for {
		wait := c.interval
		if err := c.reconcileOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.metrics.CycleFailures.WithLabelValues("reconcile").Inc()
			wait = bo.NextBackOff()
			c.logger.Error().Err(err).Dur("retry_in", wait).Msg("reconcile cycle failed")
		} else {
			bo.Reset()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (c *Coordinator) reconcileOnce(ctx context.Context) error {
	runID, _ := gonanoid.New(8)
	log := c.logger.With().Str("run_id", runID).Logger()

	c.mu.Lock()
	defer c.mu.Unlock()

	log.Info().Msg("reconcile cycle starting")
	start := time.Now()
	added, err := c.reconciler.Reconcile(ctx)
	c.metrics.CycleDuration.WithLabelValues("reconcile").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	log.Info().Int("added", added).Dur("elapsed", time.Since(start)).Msg("reconcile cycle finished")
	return nil
}

func (c *Coordinator) sweepLoop(ctx context.Context) error {
	bo := newCycleBackoff(c.interval)
	for {
		next := nextSweepTime(time.Now().UTC(), c.sweepHour)
		c.logger.Info().Time("next_sweep", next).Msg("retention sweep scheduled")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Until(next)):
		}

		for {
			err := c.sweepOnce(ctx)
			if err == nil {
				bo.Reset()
				break
			}
			if ctx.Err() != nil {
				return nil
			}
			c.metrics.CycleFailures.WithLabelValues("sweep").Inc()
			wait := bo.NextBackOff()
			c.logger.Error().Err(err).Dur("retry_in", wait).Msg("sweep cycle failed")

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
	}
}

func (c *Coordinator) sweepOnce(ctx context.Context) error {
	runID, _ := gonanoid.New(8)
	log := c.logger.With().Str("run_id", runID).Logger()

	c.mu.Lock()
	defer c.mu.Unlock()

	log.Info().Msg("sweep cycle starting")
	start := time.Now()
	expired, err := c.sweeper.Sweep(ctx, time.Now().UTC())
	c.metrics.CycleDuration.WithLabelValues("sweep").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}

	log.Info().Int("expired", expired).Dur("elapsed", time.Since(start)).Msg("sweep cycle finished")
	return nil
}

// nextSweepTime is the next occurrence of the anchor hour, strictly after
// now.
func nextSweepTime(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

func newCycleBackoff(maxInterval time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 30 * time.Second
	bo.MaxInterval = maxInterval
	// Cycles retry forever; the next scheduled run supersedes a wedged one.
	bo.MaxElapsedTime = 0
	return bo
}
