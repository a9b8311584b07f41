// Package scheduler drives the daemon loop: it fires one backup+prune cycle
// per wall-clock interval bucket, gated on the last known success.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"borgd/internal/models"
)

// Clock abstracts wall-clock access so the loop can be tested with a fake
// clock.
type Clock interface {
	Now() time.Time
	// Sleep suspends for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// CycleRunner is the slice of the runner service the scheduler needs.
type CycleRunner interface {
	SingleCycle(ctx context.Context) models.CycleOutcome
}

// State is the schedule state carried between iterations. A fresh value
// replaces it after each successful cycle; the zero value means "never
// succeeded".
type State struct {
	LastSuccess time.Time
}

// PrevTarget returns the most recent interval boundary at or before now:
// on the hour, with the hour divisible by intervalHours.
func PrevTarget(now time.Time, intervalHours int) time.Time {
	hour := (now.Hour() / intervalHours) * intervalHours
	return time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
}

// Due reports whether a cycle should run: the last success lies strictly
// before the current bucket's boundary.
func (s State) Due(prevTarget time.Time) bool {
	return s.LastSuccess.Before(prevTarget)
}

// SleepFor bounds the time until nextTarget to [0, limit]. The target may
// already be in the past when a cycle overran its bucket.
func SleepFor(nextTarget, now time.Time, limit time.Duration) time.Duration {
	d := nextTarget.Sub(now)
	if d < 0 {
		return 0
	}
	if d > limit {
		return limit
	}
	return d
}

// Scheduler runs the daemon loop.
type Scheduler struct {
	runner CycleRunner
	cfg    models.DaemonSettings
	clock  Clock
	lock   *flock.Flock
	logger zerolog.Logger

	state State
}

// New creates a new scheduler.
func New(logger zerolog.Logger, cfg models.DaemonSettings, runner CycleRunner) *Scheduler {
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		clock:  realClock{},
		lock:   flock.New(cfg.LockFile),
		logger: logger,
	}
}

// NewWithClock creates a new scheduler with a custom clock (for testing).
func NewWithClock(logger zerolog.Logger, cfg models.DaemonSettings, runner CycleRunner, clock Clock) *Scheduler {
	s := New(logger, cfg, runner)
	s.clock = clock
	return s
}

// Run executes the loop until ctx is cancelled. Only one daemon may run per
// lock file.
func (s *Scheduler) Run(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring daemon lock %s: %w", s.cfg.LockFile, err)
	}
	if !ok {
		return fmt.Errorf("another borgd daemon already holds %s", s.cfg.LockFile)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release daemon lock")
		}
	}()

	s.logger.Info().
		Int("interval_hours", s.cfg.IntervalHours).
		Str("lock", s.cfg.LockFile).
		Msg("daemon started")

	interval := time.Duration(s.cfg.IntervalHours) * time.Hour
	for {
		if ctx.Err() != nil {
			s.logger.Info().Msg("daemon stopped")
			return nil
		}

		now := s.clock.Now()
		prev := PrevTarget(now, s.cfg.IntervalHours)
		next := prev.Add(interval)

		s.state = s.runOrSkip(ctx, s.state, now, prev)

		// next comes from this iteration's check; when the cycle overran
		// the bucket the sleep clamps to zero and the loop re-checks at once
		s.clock.Sleep(ctx, SleepFor(next, s.clock.Now(), s.cfg.SleepCap))
	}
}

// runOrSkip runs one Check/Run-or-Skip phase and returns the next state.
func (s *Scheduler) runOrSkip(ctx context.Context, state State, now, prev time.Time) State {
	if !state.Due(prev) {
		s.logger.Debug().
			Time("last_success", state.LastSuccess).
			Time("target", prev).
			Msg("cycle not due")
		return state
	}

	s.logger.Info().Time("target", prev).Msg("cycle due")
	outcome := s.runner.SingleCycle(ctx)
	if !outcome.Success {
		s.logger.Error().
			Int("exit_code", outcome.ExitCode).
			Msg("cycle failed, will retry next wake-up")
		return state
	}

	s.logger.Info().Time("completed", now).Msg("cycle succeeded")
	// success is stamped with the time the due-check was made, so the next
	// iteration skips this bucket even if the cycle itself overran it
	return State{LastSuccess: now}
}
