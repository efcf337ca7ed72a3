// Package audit runs the periodic consistency sweep: it re-derives recent
// day rows from their logs so that any drift left by a crash, a lost race
// or a failed refresh converges back to the settled state.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

// SweepStore defines the storage operations the Worker needs.
// Implemented by storage.Store.
type SweepStore interface {
	ListUsers() ([]storage.User, error)
	RefreshDay(domain summary.Domain, userID, day string, now time.Time) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Weight keeps no derived day row, so only the other three domains sweep.
var sweepDomains = []summary.Domain{
	summary.DomainMeds,
	summary.DomainExercise,
	summary.DomainConsumed,
}

// Worker sweeps every user's recent day window on an interval. Refresh is
// idempotent, so sweeping settled days is harmless and sweeping drifted
// ones repairs them, including rows whose logs were deleted entirely.
type Worker struct {
	store  SweepStore
	clock  Clock
	every  time.Duration
	window int
	logger *slog.Logger
}

// NewWorker creates a Worker with the given sweep interval and day window.
// A non-positive interval defaults to 1 hour, a non-positive window to 7
// days.
func NewWorker(store SweepStore, every time.Duration, window int) *Worker {
	return NewWorkerWithClock(store, realClock{}, every, window)
}

// NewWorkerWithClock creates a Worker with a custom clock (for testing).
func NewWorkerWithClock(store SweepStore, clock Clock, every time.Duration, window int) *Worker {
	if every <= 0 {
		every = time.Hour
	}
	if window <= 0 {
		window = 7
	}
	return &Worker{
		store:  store,
		clock:  clock,
		every:  every,
		window: window,
		logger: slog.Default(),
	}
}

// Run sweeps until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		swept, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("consistency sweep failed", "error", err)
		} else {
			w.logger.Debug("consistency sweep complete", "days_refreshed", swept)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.every):
		}
	}
}

// RunOnce sweeps the window for every user and domain, returning how many
// day refreshes ran. Individual refresh failures are logged and skipped;
// the next pass retries them.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	users, err := w.store.ListUsers()
	if err != nil {
		return 0, fmt.Errorf("listing users: %w", err)
	}

	days, err := w.windowDays()
	if err != nil {
		return 0, err
	}

	now := w.clock.Now().UTC()
	swept := 0
	for _, u := range users {
		for _, domain := range sweepDomains {
			for _, day := range days {
				if ctx.Err() != nil {
					return swept, ctx.Err()
				}
				if err := w.store.RefreshDay(domain, u.ID, day, now); err != nil {
					w.logger.Warn("sweep refresh failed",
						"domain", domain, "user_id", u.ID, "day", day, "error", err)
					continue
				}
				swept++
			}
		}
	}
	return swept, nil
}

// windowDays is the sweep range: the last window days up to UTC today,
// plus one trailing day for users whose local today is ahead of UTC.
func (w *Worker) windowDays() ([]string, error) {
	today := summary.DayOf(w.clock.Now(), time.UTC)
	start, err := summary.AddDays(today, -(w.window - 1))
	if err != nil {
		return nil, fmt.Errorf("computing sweep window: %w", err)
	}
	end, err := summary.AddDays(today, 1)
	if err != nil {
		return nil, fmt.Errorf("computing sweep window: %w", err)
	}
	return summary.DayRange(start, end)
}
