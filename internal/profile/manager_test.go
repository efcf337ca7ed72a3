package profile

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daylog-app/daylog/internal/storage"
)

// --- Mock store ---

type mockUserStore struct {
	mu    sync.Mutex
	users map[string]storage.User

	getCalls int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]storage.User)}
}

func (m *mockUserStore) CreateUser(u storage.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) GetUser(id string) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	u, ok := m.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) UpdateUserSettings(id, timezone, weightUnit string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Timezone = timezone
	u.WeightUnit = weightUnit
	m.users[id] = u
	return nil
}

// --- Mock clock ---

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Tests ---

func TestCreate_Defaults(t *testing.T) {
	store := newMockUserStore()
	clock := &mockClock{now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
	mgr := NewManagerWithClock(store, clock, 60*time.Second)

	u, err := mgr.Create(storage.User{})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID == "" {
		t.Error("expected a generated ID")
	}
	if !u.SignupAt.Equal(clock.Now()) {
		t.Errorf("expected signup at %v, got %v", clock.Now(), u.SignupAt)
	}
	if u.Timezone != "UTC" || u.WeightUnit != "kg" {
		t.Errorf("expected UTC/kg defaults, got %s/%s", u.Timezone, u.WeightUnit)
	}

	stored, ok := store.users[u.ID]
	if !ok {
		t.Fatal("user not persisted")
	}
	if stored != u {
		t.Errorf("stored user %+v differs from returned %+v", stored, u)
	}
}

func TestCreate_RejectsInvalidSettings(t *testing.T) {
	store := newMockUserStore()
	mgr := NewManager(store)

	if _, err := mgr.Create(storage.User{Timezone: "Mars/Olympus"}); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if _, err := mgr.Create(storage.User{WeightUnit: "stone"}); err == nil {
		t.Error("expected error for unknown weight unit")
	}
	if len(store.users) != 0 {
		t.Errorf("expected nothing persisted, got %d users", len(store.users))
	}
}

func TestGet_CachesWithinTTL(t *testing.T) {
	store := newMockUserStore()
	store.users["u1"] = storage.User{ID: "u1", Timezone: "UTC", WeightUnit: "kg"}
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, 60*time.Second)

	mgr.Get("u1")
	mgr.Get("u1")

	store.mu.Lock()
	calls := store.getCalls
	store.mu.Unlock()

	if calls != 1 {
		t.Errorf("expected 1 store call (cache hit on second), got %d", calls)
	}
}

func TestGet_ExpiresAfterTTL(t *testing.T) {
	store := newMockUserStore()
	store.users["u1"] = storage.User{ID: "u1", Timezone: "UTC", WeightUnit: "kg"}
	clock := &mockClock{now: time.Now()}
	ttl := 60 * time.Second
	mgr := NewManagerWithClock(store, clock, ttl)

	mgr.Get("u1")
	clock.Advance(ttl + time.Second)
	mgr.Get("u1")

	store.mu.Lock()
	calls := store.getCalls
	store.mu.Unlock()

	if calls != 2 {
		t.Errorf("expected 2 store calls (cache expired), got %d", calls)
	}
}

func TestGet_NotFound(t *testing.T) {
	mgr := NewManager(newMockUserStore())

	_, err := mgr.Get("nobody")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetSettings_InvalidatesCache(t *testing.T) {
	store := newMockUserStore()
	store.users["u1"] = storage.User{ID: "u1", Timezone: "UTC", WeightUnit: "kg"}
	clock := &mockClock{now: time.Now()}
	mgr := NewManagerWithClock(store, clock, time.Hour)

	mgr.Get("u1")
	if err := mgr.SetSettings("u1", "Europe/Berlin", "lb"); err != nil {
		t.Fatalf("SetSettings error: %v", err)
	}

	u, err := mgr.Get("u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if u.Timezone != "Europe/Berlin" || u.WeightUnit != "lb" {
		t.Errorf("expected updated settings, got %s/%s", u.Timezone, u.WeightUnit)
	}

	store.mu.Lock()
	calls := store.getCalls
	store.mu.Unlock()
	if calls != 2 {
		t.Errorf("expected a fresh store read after settings change, got %d calls", calls)
	}
}

func TestSetSettings_RejectsInvalidInput(t *testing.T) {
	store := newMockUserStore()
	store.users["u1"] = storage.User{ID: "u1", Timezone: "UTC", WeightUnit: "kg"}
	mgr := NewManager(store)

	if err := mgr.SetSettings("u1", "Nowhere/Atoll", "kg"); err == nil {
		t.Error("expected error for unknown timezone")
	}
	if err := mgr.SetSettings("u1", "UTC", "oz"); err == nil {
		t.Error("expected error for unknown weight unit")
	}
	if store.users["u1"].Timezone != "UTC" {
		t.Errorf("settings changed despite rejection: %+v", store.users["u1"])
	}
}

// A signup late in the UTC evening can still be the same local day, or the
// previous one, depending on the user's timezone.
func TestMinAllowedDay_UsesSignupTimezone(t *testing.T) {
	store := newMockUserStore()
	signup := time.Date(2026, 1, 4, 2, 30, 0, 0, time.UTC)
	store.users["la"] = storage.User{ID: "la", SignupAt: signup, Timezone: "America/Los_Angeles", WeightUnit: "kg"}
	store.users["utc"] = storage.User{ID: "utc", SignupAt: signup, Timezone: "UTC", WeightUnit: "kg"}
	mgr := NewManager(store)

	got, err := mgr.MinAllowedDay("la")
	if err != nil {
		t.Fatalf("MinAllowedDay error: %v", err)
	}
	if got != "2026-01-03" {
		t.Errorf("expected 2026-01-03 for Los Angeles signup, got %s", got)
	}

	got, err = mgr.MinAllowedDay("utc")
	if err != nil {
		t.Fatalf("MinAllowedDay error: %v", err)
	}
	if got != "2026-01-04" {
		t.Errorf("expected 2026-01-04 for UTC signup, got %s", got)
	}
}

func TestLocation_MalformedTimezoneFallsBackToUTC(t *testing.T) {
	store := newMockUserStore()
	// Seeded directly, so validation never saw this value.
	store.users["u1"] = storage.User{ID: "u1", Timezone: "Not/AZone", WeightUnit: "kg"}
	mgr := NewManager(store)

	loc, err := mgr.Location("u1")
	if err != nil {
		t.Fatalf("Location error: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("expected UTC fallback, got %v", loc)
	}
}

func TestToday_UsesUserTimezone(t *testing.T) {
	store := newMockUserStore()
	store.users["u1"] = storage.User{ID: "u1", Timezone: "America/Los_Angeles", WeightUnit: "kg"}
	clock := &mockClock{now: time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)}
	mgr := NewManagerWithClock(store, clock, time.Minute)

	got, err := mgr.Today("u1")
	if err != nil {
		t.Fatalf("Today error: %v", err)
	}
	if got != "2026-01-04" {
		t.Errorf("expected 2026-01-04 (19:00 local the day before), got %s", got)
	}
}
