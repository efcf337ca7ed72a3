package rangecache

import (
	"sync"
	"testing"
	"time"

	"github.com/daylog-app/daylog/internal/summary"
)

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

func key(domain summary.Domain, user, start, end string) Key {
	return Key{Domain: domain, UserID: user, Start: start, End: end}
}

func TestGetPut_RoundTrip(t *testing.T) {
	c := New()
	k := key(summary.DomainMeds, "u1", "2026-01-01", "2026-01-07")

	if _, ok := c.Get(k); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Put(k, "rows")
	v, ok := c.Get(k)
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if v.(string) != "rows" {
		t.Errorf("got %v, want rows", v)
	}
}

func TestPut_ReplacesExisting(t *testing.T) {
	c := New()
	k := key(summary.DomainMeds, "u1", "2026-01-01", "2026-01-07")

	c.Put(k, "old")
	c.Put(k, "new")

	v, _ := c.Get(k)
	if v.(string) != "new" {
		t.Errorf("got %v, want new", v)
	}
}

func TestInvalidateDate_EvictsOnlyCoveringRanges(t *testing.T) {
	c := New()
	u1Early := key(summary.DomainConsumed, "u1", "2026-01-01", "2026-01-07")
	u1Late := key(summary.DomainConsumed, "u1", "2026-01-10", "2026-01-17")
	u2Early := key(summary.DomainConsumed, "u2", "2026-01-01", "2026-01-07")
	c.Put(u1Early, "a")
	c.Put(u1Late, "b")
	c.Put(u2Early, "c")

	c.InvalidateDate(summary.DomainConsumed, "u1", "2026-01-03")

	if _, ok := c.Get(u1Early); ok {
		t.Error("range covering the mutated date should be evicted")
	}
	if _, ok := c.Get(u1Late); !ok {
		t.Error("non-overlapping range for the same user was evicted")
	}
	if _, ok := c.Get(u2Early); !ok {
		t.Error("another user's range was evicted")
	}
}

func TestInvalidateDate_InclusiveBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		day   string
		evict bool
	}{
		{"day before start", "2026-01-04", false},
		{"start day", "2026-01-05", true},
		{"end day", "2026-01-11", true},
		{"day after end", "2026-01-12", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			k := key(summary.DomainExercise, "u1", "2026-01-05", "2026-01-11")
			c.Put(k, "rows")

			c.InvalidateDate(summary.DomainExercise, "u1", tt.day)

			_, ok := c.Get(k)
			if tt.evict && ok {
				t.Errorf("day %s inside [%s,%s] did not evict", tt.day, k.Start, k.End)
			}
			if !tt.evict && !ok {
				t.Errorf("day %s outside [%s,%s] evicted", tt.day, k.Start, k.End)
			}
		})
	}
}

func TestInvalidateDate_OtherDomainUntouched(t *testing.T) {
	c := New()
	meds := key(summary.DomainMeds, "u1", "2026-01-01", "2026-01-07")
	exercise := key(summary.DomainExercise, "u1", "2026-01-01", "2026-01-07")
	c.Put(meds, "m")
	c.Put(exercise, "e")

	c.InvalidateDate(summary.DomainMeds, "u1", "2026-01-03")

	if _, ok := c.Get(meds); ok {
		t.Error("meds range should be evicted")
	}
	if _, ok := c.Get(exercise); !ok {
		t.Error("exercise range should survive a meds invalidation")
	}
}

func TestInvalidateDate_NoOpOnEmptyInputs(t *testing.T) {
	c := New()
	k := key(summary.DomainMeds, "u1", "2026-01-01", "2026-01-07")
	c.Put(k, "rows")

	c.InvalidateDate(summary.DomainMeds, "", "2026-01-03")
	c.InvalidateDate(summary.DomainMeds, "u1", "")

	if _, ok := c.Get(k); !ok {
		t.Error("empty user or day must evict nothing")
	}
}

func TestGet_ExpiredEntryIsMiss(t *testing.T) {
	clock := &mockClock{now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
	c := NewWithClock(clock, time.Minute)
	k := key(summary.DomainWeight, "u1", "2026-01-01", "2026-01-07")

	c.Put(k, "rows")
	if _, ok := c.Get(k); !ok {
		t.Fatal("expected hit before expiry")
	}

	clock.Advance(time.Minute + time.Second)
	if _, ok := c.Get(k); ok {
		t.Error("expected miss after TTL")
	}
}

func TestGet_ZeroTTLNeverExpires(t *testing.T) {
	clock := &mockClock{now: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
	c := NewWithClock(clock, 0)
	k := key(summary.DomainMeds, "u1", "2026-01-01", "2026-01-07")

	c.Put(k, "rows")
	clock.Advance(24 * time.Hour)

	if _, ok := c.Get(k); !ok {
		t.Error("zero TTL entry should not expire")
	}
}
