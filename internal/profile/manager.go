package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

// ErrInvalid marks settings rejected before they reach storage.
var ErrInvalid = errors.New("invalid settings")

// UserStore defines the storage operations the Manager needs.
// Implemented by storage.Store.
type UserStore interface {
	CreateUser(u storage.User) error
	GetUser(id string) (storage.User, error)
	UpdateUserSettings(id, timezone, weightUnit string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Manager provides cached access to user accounts and the settings that
// shape day series: the timezone that turns instants into day-keys, and
// the signup timestamp that bounds how far back a series may reach.
type Manager struct {
	store UserStore
	clock Clock
	ttl   time.Duration

	mu     sync.RWMutex
	cached map[string]cachedUser
}

type cachedUser struct {
	user     storage.User
	cachedAt time.Time
}

// NewManager creates a Manager with a 60-second cache TTL.
func NewManager(store UserStore) *Manager {
	return NewManagerWithClock(store, realClock{}, 60*time.Second)
}

// NewManagerWithClock creates a Manager with a custom clock (for testing).
func NewManagerWithClock(store UserStore, clock Clock, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		ttl:    ttl,
		cached: make(map[string]cachedUser),
	}
}

// Create registers a new user and primes the cache. Empty fields get
// defaults: a random ID, a signup timestamp of now, timezone UTC, weight
// unit kg. The signup timestamp never changes afterwards.
func (m *Manager) Create(u storage.User) (storage.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := m.clock.Now().UTC()
	if u.SignupAt.IsZero() {
		u.SignupAt = now
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	if u.WeightUnit == "" {
		u.WeightUnit = "kg"
	}
	if _, err := time.LoadLocation(u.Timezone); err != nil {
		return storage.User{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalid, u.Timezone)
	}
	if !ValidWeightUnit(u.WeightUnit) {
		return storage.User{}, fmt.Errorf("%w: unknown weight unit %q", ErrInvalid, u.WeightUnit)
	}

	if err := m.store.CreateUser(u); err != nil {
		return storage.User{}, fmt.Errorf("creating user %q: %w", u.ID, err)
	}

	m.mu.Lock()
	m.cached[u.ID] = cachedUser{user: u, cachedAt: m.clock.Now()}
	m.mu.Unlock()
	return u, nil
}

// Get reads a user from storage (or cache). Returns storage.ErrNotFound
// for unknown IDs.
func (m *Manager) Get(userID string) (storage.User, error) {
	// Fast path: read lock for cache hit.
	m.mu.RLock()
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		m.mu.RUnlock()
		return e.user, nil
	}
	m.mu.RUnlock()

	// Slow path: write lock for cache miss.
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock.
	if e, ok := m.cached[userID]; ok && m.clock.Now().Before(e.cachedAt.Add(m.ttl)) {
		return e.user, nil
	}

	u, err := m.store.GetUser(userID)
	if err != nil {
		return storage.User{}, fmt.Errorf("loading user %q: %w", userID, err)
	}

	m.cached[userID] = cachedUser{user: u, cachedAt: m.clock.Now()}
	return u, nil
}

// SetSettings updates a user's timezone and weight unit and invalidates
// the cache entry. The signup timestamp stays fixed.
func (m *Manager) SetSettings(userID, timezone, weightUnit string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalid, timezone)
	}
	if !ValidWeightUnit(weightUnit) {
		return fmt.Errorf("%w: unknown weight unit %q", ErrInvalid, weightUnit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.UpdateUserSettings(userID, timezone, weightUnit); err != nil {
		return fmt.Errorf("updating settings for user %q: %w", userID, err)
	}

	delete(m.cached, userID)
	return nil
}

// Location resolves the user's timezone. A timezone that no longer parses
// degrades to UTC with a warning rather than failing the caller.
func (m *Manager) Location(userID string) (*time.Location, error) {
	u, err := m.Get(userID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		slog.Warn("unresolvable user timezone, falling back to UTC", "user_id", userID, "timezone", u.Timezone, "error", err)
		return time.UTC, nil
	}
	return loc, nil
}

// MinAllowedDay returns the earliest day-key a series for this user may
// contain: the signup timestamp rendered in the user's timezone.
func (m *Manager) MinAllowedDay(userID string) (string, error) {
	u, err := m.Get(userID)
	if err != nil {
		return "", err
	}
	loc, err := m.Location(userID)
	if err != nil {
		return "", err
	}
	return summary.DayOf(u.SignupAt, loc), nil
}

// Today returns the current day-key in the user's timezone.
func (m *Manager) Today(userID string) (string, error) {
	loc, err := m.Location(userID)
	if err != nil {
		return "", err
	}
	return summary.DayOf(m.clock.Now(), loc), nil
}

// ValidWeightUnit reports whether unit is an accepted display unit.
func ValidWeightUnit(unit string) bool {
	return unit == "kg" || unit == "lb"
}
