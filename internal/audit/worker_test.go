package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

var sweepNow = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *storage.Store, id string) {
	t.Helper()
	err := s.CreateUser(storage.User{
		ID:        id,
		SignupAt:  sweepNow.AddDate(-1, 0, 0),
		CreatedAt: sweepNow.AddDate(-1, 0, 0),
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func newTestWorker(s *storage.Store, window int) *Worker {
	return NewWorkerWithClock(s, &mockClock{now: sweepNow}, time.Hour, window)
}

// A log inserted without a follow-up refresh leaves no day row; the sweep
// derives it.
func TestRunOnce_RepairsMissingRow(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "u1")
	err := store.InsertMedLog(summary.MedLog{
		ID: "m1", UserID: "u1", Day: "2026-01-03",
		Kind: summary.MedKindMed, Name: "aspirin", CreatedAt: sweepNow,
	})
	if err != nil {
		t.Fatalf("InsertMedLog: %v", err)
	}
	if _, err := store.GetMedsDay("u1", "2026-01-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected no row before sweep, got %v", err)
	}

	w := newTestWorker(store, 7)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	row, err := store.GetMedsDay("u1", "2026-01-03")
	if err != nil {
		t.Fatalf("expected repaired row, got %v", err)
	}
	if row.MedCount != 1 {
		t.Errorf("expected med count 1, got %d", row.MedCount)
	}
}

// A day row whose last log was deleted behind its back is stale; the sweep
// removes it.
func TestRunOnce_RemovesStaleRow(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "u1")
	err := store.InsertExerciseLog(summary.ExerciseLog{
		ID: "e1", UserID: "u1", Day: "2026-01-04",
		Category: summary.CategoryStrength, Name: "deadlift", CreatedAt: sweepNow,
	})
	if err != nil {
		t.Fatalf("InsertExerciseLog: %v", err)
	}
	if err := store.RefreshDay(summary.DomainExercise, "u1", "2026-01-04", sweepNow); err != nil {
		t.Fatalf("RefreshDay: %v", err)
	}
	if err := store.DeleteExerciseLog("e1"); err != nil {
		t.Fatalf("DeleteExerciseLog: %v", err)
	}
	if _, err := store.GetExerciseDay("u1", "2026-01-04"); err != nil {
		t.Fatalf("expected stale row before sweep, got %v", err)
	}

	w := newTestWorker(store, 7)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := store.GetExerciseDay("u1", "2026-01-04"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected stale row removed, got %v", err)
	}
}

// The sweep must not delete a touched consumed day, even with zero logs.
func TestRunOnce_PreservesConsumedWorkflow(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "u1")
	if _, err := store.SetConsumedDayStatus("u1", "2026-01-04", summary.StatusInProgress, sweepNow); err != nil {
		t.Fatalf("SetConsumedDayStatus: %v", err)
	}

	w := newTestWorker(store, 7)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	row, err := store.GetConsumedDay("u1", "2026-01-04")
	if err != nil {
		t.Fatalf("touched consumed day vanished: %v", err)
	}
	if row.Status != summary.StatusInProgress {
		t.Errorf("expected in_progress, got %s", row.Status)
	}
}

func TestRunOnce_SkipsDaysOutsideWindow(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "u1")
	err := store.InsertMedLog(summary.MedLog{
		ID: "m1", UserID: "u1", Day: "2025-12-01",
		Kind: summary.MedKindMed, Name: "aspirin", CreatedAt: sweepNow,
	})
	if err != nil {
		t.Fatalf("InsertMedLog: %v", err)
	}

	w := newTestWorker(store, 7)
	if _, err := w.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if _, err := store.GetMedsDay("u1", "2025-12-01"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("day outside the window should stay untouched, got %v", err)
	}
}

func TestRunOnce_CoversWindowTimesUsersTimesDomains(t *testing.T) {
	store := openTestStore(t)
	createTestUser(t, store, "u1")
	createTestUser(t, store, "u2")

	w := newTestWorker(store, 3)
	swept, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	// 3-day window plus the trailing day, 3 domains, 2 users.
	if want := 2 * 3 * 4; swept != want {
		t.Errorf("expected %d refreshes, got %d", want, swept)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := openTestStore(t)
	w := NewWorkerWithClock(store, &mockClock{now: sweepNow}, 10*time.Millisecond, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
