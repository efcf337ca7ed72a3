// Package tracker orchestrates log mutations. Every write lands in storage,
// triggers a recompute of the day rows it touches, and evicts any cached
// series covering those days. Consumed-day status changes take the
// optimistic path: the caller gets a provisional row immediately while the
// authoritative write and recompute run in the background.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daylog-app/daylog/internal/rangecache"
	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

// ErrInvalid marks a mutation rejected before it reaches storage.
var ErrInvalid = errors.New("invalid input")

// Store defines the storage operations the Service needs.
// Implemented by storage.Store.
type Store interface {
	InsertMedLog(l summary.MedLog) error
	GetMedLog(id string) (summary.MedLog, error)
	UpdateMedLog(l summary.MedLog) error
	DeleteMedLog(id string) error

	InsertExerciseLog(l summary.ExerciseLog) error
	GetExerciseLog(id string) (summary.ExerciseLog, error)
	UpdateExerciseLog(l summary.ExerciseLog) error
	DeleteExerciseLog(id string) error

	InsertConsumedLog(l summary.ConsumedLog) error
	GetConsumedLog(id string) (summary.ConsumedLog, error)
	UpdateConsumedLog(l summary.ConsumedLog) error
	DeleteConsumedLog(id string) error

	InsertWeightLog(l summary.WeightLog) error
	GetWeightLog(id string) (summary.WeightLog, error)
	UpdateWeightLog(l summary.WeightLog) error
	DeleteWeightLog(id string) error

	GetConsumedDay(userID, day string) (summary.ConsumedDay, error)
	SetConsumedDayStatus(userID, day string, status summary.DayStatus, now time.Time) (summary.ConsumedDay, error)
	RefreshDay(domain summary.Domain, userID, day string, now time.Time) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Service is the mutation front door for all four log domains.
type Service struct {
	store Store
	cache *rangecache.Cache
	clock Clock

	bg sync.WaitGroup
}

// NewService creates a Service over the given store and cache.
func NewService(store Store, cache *rangecache.Cache) *Service {
	return NewServiceWithClock(store, cache, realClock{})
}

// NewServiceWithClock creates a Service with a custom clock (for testing).
func NewServiceWithClock(store Store, cache *rangecache.Cache, clock Clock) *Service {
	return &Service{store: store, cache: cache, clock: clock}
}

// Wait blocks until in-flight background reconciliation finishes. Called on
// shutdown and by tests.
func (s *Service) Wait() {
	s.bg.Wait()
}

// settle recomputes and evicts every day a mutation touched. A refresh
// failure is logged, not returned: the log write already succeeded, and the
// consistency sweep repairs any drift left behind.
func (s *Service) settle(domain summary.Domain, userID string, days ...string) {
	now := s.clock.Now().UTC()
	for _, day := range days {
		if err := s.store.RefreshDay(domain, userID, day, now); err != nil {
			slog.Error("day refresh failed, row left stale until next sweep",
				"domain", domain, "user_id", userID, "day", day, "error", err)
		}
		s.cache.InvalidateDate(domain, userID, day)
	}
}

// --- Meds ---

// AddMed records a med or supplement intake.
func (s *Service) AddMed(l summary.MedLog) (summary.MedLog, error) {
	if err := validMedLog(l); err != nil {
		return summary.MedLog{}, err
	}
	s.stamp(&l.ID, &l.CreatedAt)
	if err := s.store.InsertMedLog(l); err != nil {
		return summary.MedLog{}, fmt.Errorf("inserting med log: %w", err)
	}
	s.settle(summary.DomainMeds, l.UserID, l.Day)
	return l, nil
}

// UpdateMed rewrites an existing entry. Moving it to another day settles
// both the day it left and the day it landed on.
func (s *Service) UpdateMed(l summary.MedLog) (summary.MedLog, error) {
	if l.ID == "" {
		return summary.MedLog{}, fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if err := validMedLog(l); err != nil {
		return summary.MedLog{}, err
	}
	prev, err := s.store.GetMedLog(l.ID)
	if err != nil {
		return summary.MedLog{}, fmt.Errorf("loading med log %q: %w", l.ID, err)
	}
	l.UserID = prev.UserID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = prev.CreatedAt
	}
	if err := s.store.UpdateMedLog(l); err != nil {
		return summary.MedLog{}, fmt.Errorf("updating med log %q: %w", l.ID, err)
	}
	s.settle(summary.DomainMeds, prev.UserID, summary.AffectedDays(prev.Day, l.Day)...)
	return l, nil
}

// DeleteMed removes an entry and settles the day it contributed to.
func (s *Service) DeleteMed(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	prev, err := s.store.GetMedLog(id)
	if err != nil {
		return fmt.Errorf("loading med log %q: %w", id, err)
	}
	if err := s.store.DeleteMedLog(id); err != nil {
		return fmt.Errorf("deleting med log %q: %w", id, err)
	}
	s.settle(summary.DomainMeds, prev.UserID, prev.Day)
	return nil
}

// --- Exercise ---

// AddExercise records a workout.
func (s *Service) AddExercise(l summary.ExerciseLog) (summary.ExerciseLog, error) {
	if err := validExerciseLog(l); err != nil {
		return summary.ExerciseLog{}, err
	}
	s.stamp(&l.ID, &l.CreatedAt)
	if err := s.store.InsertExerciseLog(l); err != nil {
		return summary.ExerciseLog{}, fmt.Errorf("inserting exercise log: %w", err)
	}
	s.settle(summary.DomainExercise, l.UserID, l.Day)
	return l, nil
}

func (s *Service) UpdateExercise(l summary.ExerciseLog) (summary.ExerciseLog, error) {
	if l.ID == "" {
		return summary.ExerciseLog{}, fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if err := validExerciseLog(l); err != nil {
		return summary.ExerciseLog{}, err
	}
	prev, err := s.store.GetExerciseLog(l.ID)
	if err != nil {
		return summary.ExerciseLog{}, fmt.Errorf("loading exercise log %q: %w", l.ID, err)
	}
	l.UserID = prev.UserID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = prev.CreatedAt
	}
	if err := s.store.UpdateExerciseLog(l); err != nil {
		return summary.ExerciseLog{}, fmt.Errorf("updating exercise log %q: %w", l.ID, err)
	}
	s.settle(summary.DomainExercise, prev.UserID, summary.AffectedDays(prev.Day, l.Day)...)
	return l, nil
}

func (s *Service) DeleteExercise(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	prev, err := s.store.GetExerciseLog(id)
	if err != nil {
		return fmt.Errorf("loading exercise log %q: %w", id, err)
	}
	if err := s.store.DeleteExerciseLog(id); err != nil {
		return fmt.Errorf("deleting exercise log %q: %w", id, err)
	}
	s.settle(summary.DomainExercise, prev.UserID, prev.Day)
	return nil
}

// --- Consumed ---

// AddConsumed records a food or drink entry.
func (s *Service) AddConsumed(l summary.ConsumedLog) (summary.ConsumedLog, error) {
	if err := validConsumedLog(l); err != nil {
		return summary.ConsumedLog{}, err
	}
	s.stamp(&l.ID, &l.CreatedAt)
	if err := s.store.InsertConsumedLog(l); err != nil {
		return summary.ConsumedLog{}, fmt.Errorf("inserting consumed log: %w", err)
	}
	s.settle(summary.DomainConsumed, l.UserID, l.Day)
	return l, nil
}

func (s *Service) UpdateConsumed(l summary.ConsumedLog) (summary.ConsumedLog, error) {
	if l.ID == "" {
		return summary.ConsumedLog{}, fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if err := validConsumedLog(l); err != nil {
		return summary.ConsumedLog{}, err
	}
	prev, err := s.store.GetConsumedLog(l.ID)
	if err != nil {
		return summary.ConsumedLog{}, fmt.Errorf("loading consumed log %q: %w", l.ID, err)
	}
	l.UserID = prev.UserID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = prev.CreatedAt
	}
	if err := s.store.UpdateConsumedLog(l); err != nil {
		return summary.ConsumedLog{}, fmt.Errorf("updating consumed log %q: %w", l.ID, err)
	}
	s.settle(summary.DomainConsumed, prev.UserID, summary.AffectedDays(prev.Day, l.Day)...)
	return l, nil
}

func (s *Service) DeleteConsumed(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	prev, err := s.store.GetConsumedLog(id)
	if err != nil {
		return fmt.Errorf("loading consumed log %q: %w", id, err)
	}
	if err := s.store.DeleteConsumedLog(id); err != nil {
		return fmt.Errorf("deleting consumed log %q: %w", id, err)
	}
	s.settle(summary.DomainConsumed, prev.UserID, prev.Day)
	return nil
}

// SetConsumedStatus applies a workflow status optimistically. The returned
// row is built from the last known day row and handed back before the
// authoritative write and recompute land in the background; a failed
// background write is logged and repaired by the next refresh, never rolled
// back onto the caller.
func (s *Service) SetConsumedStatus(userID, day string, status summary.DayStatus) (summary.ConsumedDay, error) {
	if userID == "" || !summary.ValidDay(day) {
		return summary.ConsumedDay{}, fmt.Errorf("%w: user and day are required", ErrInvalid)
	}
	if _, err := summary.ParseDayStatus(string(status)); err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var prev *summary.ConsumedDay
	row, err := s.store.GetConsumedDay(userID, day)
	switch {
	case err == nil:
		prev = &row
	case errors.Is(err, storage.ErrNotFound):
		// First touch of this day.
	default:
		return summary.ConsumedDay{}, fmt.Errorf("loading consumed day %s/%s: %w", userID, day, err)
	}

	now := s.clock.Now().UTC()
	provisional := summary.OptimisticConsumed(prev, userID, day, status, now)

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.store.SetConsumedDayStatus(userID, day, status, now); err != nil {
			slog.Error("consumed status write failed, next fetch reconciles",
				"user_id", userID, "day", day, "status", status, "error", err)
		}
		s.settle(summary.DomainConsumed, userID, day)
	}()

	s.cache.InvalidateDate(summary.DomainConsumed, userID, day)
	return provisional, nil
}

// --- Weight ---

// AddWeight records a weigh-in. Weight keeps no per-day summary row, so
// settling only evicts cached series.
func (s *Service) AddWeight(l summary.WeightLog) (summary.WeightLog, error) {
	if err := validWeightLog(l); err != nil {
		return summary.WeightLog{}, err
	}
	s.stamp(&l.ID, &l.CreatedAt)
	if err := s.store.InsertWeightLog(l); err != nil {
		return summary.WeightLog{}, fmt.Errorf("inserting weight log: %w", err)
	}
	s.settle(summary.DomainWeight, l.UserID, l.Day)
	return l, nil
}

func (s *Service) UpdateWeight(l summary.WeightLog) (summary.WeightLog, error) {
	if l.ID == "" {
		return summary.WeightLog{}, fmt.Errorf("%w: missing id", ErrInvalid)
	}
	if err := validWeightLog(l); err != nil {
		return summary.WeightLog{}, err
	}
	prev, err := s.store.GetWeightLog(l.ID)
	if err != nil {
		return summary.WeightLog{}, fmt.Errorf("loading weight log %q: %w", l.ID, err)
	}
	l.UserID = prev.UserID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = prev.CreatedAt
	}
	if err := s.store.UpdateWeightLog(l); err != nil {
		return summary.WeightLog{}, fmt.Errorf("updating weight log %q: %w", l.ID, err)
	}
	s.settle(summary.DomainWeight, prev.UserID, summary.AffectedDays(prev.Day, l.Day)...)
	return l, nil
}

func (s *Service) DeleteWeight(id string) error {
	if id == "" {
		return fmt.Errorf("%w: missing id", ErrInvalid)
	}
	prev, err := s.store.GetWeightLog(id)
	if err != nil {
		return fmt.Errorf("loading weight log %q: %w", id, err)
	}
	if err := s.store.DeleteWeightLog(id); err != nil {
		return fmt.Errorf("deleting weight log %q: %w", id, err)
	}
	s.settle(summary.DomainWeight, prev.UserID, prev.Day)
	return nil
}

// stamp fills the identity fields a fresh log needs.
func (s *Service) stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = s.clock.Now().UTC()
	}
}

// --- Validation ---

func validEntry(userID, day, name string) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: missing user", ErrInvalid)
	case !summary.ValidDay(day):
		return fmt.Errorf("%w: bad day %q", ErrInvalid, day)
	case name == "":
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	return nil
}

func validMedLog(l summary.MedLog) error {
	if err := validEntry(l.UserID, l.Day, l.Name); err != nil {
		return err
	}
	if _, err := summary.ParseMedKind(string(l.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func validExerciseLog(l summary.ExerciseLog) error {
	if err := validEntry(l.UserID, l.Day, l.Name); err != nil {
		return err
	}
	if _, err := summary.ParseExerciseCategory(string(l.Category)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if l.Minutes != nil && *l.Minutes < 0 {
		return fmt.Errorf("%w: negative minutes", ErrInvalid)
	}
	if l.DistanceKm != nil && *l.DistanceKm < 0 {
		return fmt.Errorf("%w: negative distance", ErrInvalid)
	}
	return nil
}

func validConsumedLog(l summary.ConsumedLog) error {
	if err := validEntry(l.UserID, l.Day, l.Name); err != nil {
		return err
	}
	for _, v := range []float64{
		l.Calories, l.ProteinG, l.CarbsG, l.FatG, l.FibreG,
		l.SugarG, l.SaturatedFatG, l.TransFatG, l.SodiumMg,
	} {
		if v < 0 {
			return fmt.Errorf("%w: negative nutrient amount", ErrInvalid)
		}
	}
	return nil
}

func validWeightLog(l summary.WeightLog) error {
	switch {
	case l.UserID == "":
		return fmt.Errorf("%w: missing user", ErrInvalid)
	case !summary.ValidDay(l.Day):
		return fmt.Errorf("%w: bad day %q", ErrInvalid, l.Day)
	case l.WeightKg <= 0:
		return fmt.Errorf("%w: weight must be positive", ErrInvalid)
	}
	return nil
}
