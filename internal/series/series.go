// Package series assembles dense, display-ready day sequences from the
// sparse summary rows kept by storage. Results are cached per exact
// (domain, user, range), and concurrent misses for the same range collapse
// into a single store read.
package series

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/daylog-app/daylog/internal/rangecache"
	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

// Order selects how a fetched series is sorted.
type Order string

const (
	// OrderNewestFirst is the default: descending by day.
	OrderNewestFirst Order = "desc"
	// OrderOldestFirst sorts ascending by day.
	OrderOldestFirst Order = "asc"
)

// ParseOrder maps a request parameter to an Order. Empty selects the default.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "desc":
		return OrderNewestFirst, nil
	case "asc":
		return OrderOldestFirst, nil
	default:
		return "", fmt.Errorf("unknown order %q", s)
	}
}

// SummaryStore defines the read operations the Fetcher needs.
// Implemented by storage.Store.
type SummaryStore interface {
	ListMedsDays(userID, start, end string) ([]summary.MedsDay, error)
	ListExerciseDays(userID, start, end string) ([]summary.ExerciseDay, error)
	ListConsumedDays(userID, start, end string) ([]summary.ConsumedDay, error)
	DailyWeights(userID, start, end string) ([]summary.WeightLog, error)
	LatestWeightBefore(userID, day string) (summary.WeightLog, error)
}

// Boundary resolves the earliest day-key a user's series may contain.
// Implemented by profile.Manager.
type Boundary interface {
	MinAllowedDay(userID string) (string, error)
}

// WeightPoint is one day in a weight series. WeightKg is nil until the
// user's first recorded weight; later gaps carry the last known value
// forward. Consumers treat nil as "no data", never as zero.
type WeightPoint struct {
	UserID   string
	Day      string
	WeightKg *float64
}

// Overview bundles all four domains for one range.
type Overview struct {
	Meds     []summary.MedsDay
	Exercise []summary.ExerciseDay
	Consumed []summary.ConsumedDay
	Weights  []WeightPoint
}

// Fetcher serves dense day series with an exact-range cache in front of
// the store. A failed store read degrades to an empty series: absent data
// is shown as absent, never fabricated as zeros. Only successful fetches
// are cached.
type Fetcher struct {
	store    SummaryStore
	boundary Boundary
	cache    *rangecache.Cache
	group    singleflight.Group
}

// NewFetcher creates a Fetcher over the given store, signup boundary and
// cache.
func NewFetcher(store SummaryStore, boundary Boundary, cache *rangecache.Cache) *Fetcher {
	return &Fetcher{store: store, boundary: boundary, cache: cache}
}

// Meds returns the meds series for [start, end], one row per day.
func (f *Fetcher) Meds(userID, start, end string, order Order) []summary.MedsDay {
	v := f.fetch(summary.DomainMeds, userID, start, end, func(days []string) (any, error) {
		rows, err := f.store.ListMedsDays(userID, days[0], days[len(days)-1])
		if err != nil {
			return nil, fmt.Errorf("listing meds days: %w", err)
		}
		return fillMeds(userID, days, rows), nil
	})
	rows, _ := v.([]summary.MedsDay)
	return ordered(rows, order)
}

// Exercise returns the exercise series for [start, end], one row per day.
func (f *Fetcher) Exercise(userID, start, end string, order Order) []summary.ExerciseDay {
	v := f.fetch(summary.DomainExercise, userID, start, end, func(days []string) (any, error) {
		rows, err := f.store.ListExerciseDays(userID, days[0], days[len(days)-1])
		if err != nil {
			return nil, fmt.Errorf("listing exercise days: %w", err)
		}
		return fillExercise(userID, days, rows), nil
	})
	rows, _ := v.([]summary.ExerciseDay)
	return ordered(rows, order)
}

// Consumed returns the consumed series for [start, end], one row per day.
// Days the user never touched appear as zero-sum rows with an unknown
// status; such rows are display-only and never persisted.
func (f *Fetcher) Consumed(userID, start, end string, order Order) []summary.ConsumedDay {
	v := f.fetch(summary.DomainConsumed, userID, start, end, func(days []string) (any, error) {
		rows, err := f.store.ListConsumedDays(userID, days[0], days[len(days)-1])
		if err != nil {
			return nil, fmt.Errorf("listing consumed days: %w", err)
		}
		return fillConsumed(userID, days, rows), nil
	})
	rows, _ := v.([]summary.ConsumedDay)
	return ordered(rows, order)
}

// Weights returns the weight series for [start, end], one point per day,
// forward-filling gaps from the most recent reading on or before each day.
func (f *Fetcher) Weights(userID, start, end string, order Order) []WeightPoint {
	v := f.fetch(summary.DomainWeight, userID, start, end, func(days []string) (any, error) {
		logs, err := f.store.DailyWeights(userID, days[0], days[len(days)-1])
		if err != nil {
			return nil, fmt.Errorf("listing weights: %w", err)
		}
		var seed *float64
		prev, err := f.store.LatestWeightBefore(userID, days[0])
		switch {
		case err == nil:
			seed = &prev.WeightKg
		case errors.Is(err, storage.ErrNotFound):
			// No reading before the range; early days stay nil.
		default:
			return nil, fmt.Errorf("looking up prior weight: %w", err)
		}
		return fillWeights(userID, days, logs, seed), nil
	})
	points, _ := v.([]WeightPoint)
	return ordered(points, order)
}

// Range fetches all four domains for [start, end] concurrently.
func (f *Fetcher) Range(userID, start, end string, order Order) Overview {
	var ov Overview
	var eg errgroup.Group
	eg.Go(func() error {
		ov.Meds = f.Meds(userID, start, end, order)
		return nil
	})
	eg.Go(func() error {
		ov.Exercise = f.Exercise(userID, start, end, order)
		return nil
	})
	eg.Go(func() error {
		ov.Consumed = f.Consumed(userID, start, end, order)
		return nil
	})
	eg.Go(func() error {
		ov.Weights = f.Weights(userID, start, end, order)
		return nil
	})
	eg.Wait()
	return ov
}

// fetch runs the shared read path: validate, clamp to the signup boundary,
// consult the cache, and on a miss load through singleflight so concurrent
// requests for the same range hit the store once. Returns nil for empty
// or degraded results.
func (f *Fetcher) fetch(domain summary.Domain, userID, start, end string, load func(days []string) (any, error)) any {
	days := f.window(userID, start, end)
	if len(days) == 0 {
		return nil
	}
	key := rangecache.Key{Domain: domain, UserID: userID, Start: days[0], End: days[len(days)-1]}

	// Fast path: cache hit.
	if v, ok := f.cache.Get(key); ok {
		return v
	}

	sfKey := string(domain) + "/" + userID + "/" + key.Start + "/" + key.End
	v, err, _ := f.group.Do(sfKey, func() (any, error) {
		// Double-check in case another goroutine just finished.
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(days)
		if err != nil {
			return nil, err
		}
		f.cache.Put(key, v)
		return v, nil
	})
	if err != nil {
		slog.Warn("summary fetch degraded to empty", "domain", domain, "user_id", userID, "start", key.Start, "end", key.End, "error", err)
		return nil
	}
	return v
}

// window validates the request and applies the signup clamp. Days strictly
// before the signup's local day-key are never fetched, filled or returned.
func (f *Fetcher) window(userID, start, end string) []string {
	if userID == "" || !summary.ValidDay(start) || !summary.ValidDay(end) {
		return nil
	}
	minDay, err := f.boundary.MinAllowedDay(userID)
	if err != nil {
		slog.Warn("signup boundary unavailable, serving empty series", "user_id", userID, "error", err)
		return nil
	}
	days, err := summary.DayRange(summary.MaxDay(start, minDay), end)
	if err != nil {
		return nil
	}
	return days
}

// ordered returns a copy sorted per order. Cached series stay ascending;
// callers never see (or mutate) the cached slice itself.
func ordered[T any](rows []T, order Order) []T {
	out := slices.Clone(rows)
	if order == OrderNewestFirst {
		slices.Reverse(out)
	}
	return out
}
