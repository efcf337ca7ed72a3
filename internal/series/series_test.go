package series

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daylog-app/daylog/internal/rangecache"
	"github.com/daylog-app/daylog/internal/storage"
	"github.com/daylog-app/daylog/internal/summary"
)

// --- Mock store ---

type mockStore struct {
	mu       sync.Mutex
	meds     []summary.MedsDay
	exercise []summary.ExerciseDay
	consumed []summary.ConsumedDay
	weights  []summary.WeightLog

	err       error
	delay     time.Duration
	listCalls int
}

func (m *mockStore) before() error {
	m.mu.Lock()
	m.listCalls++
	err := m.err
	delay := m.delay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (m *mockStore) ListMedsDays(userID, start, end string) ([]summary.MedsDay, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	var out []summary.MedsDay
	for _, r := range m.meds {
		if r.UserID == userID && start <= r.Day && r.Day <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListExerciseDays(userID, start, end string) ([]summary.ExerciseDay, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	var out []summary.ExerciseDay
	for _, r := range m.exercise {
		if r.UserID == userID && start <= r.Day && r.Day <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ListConsumedDays(userID, start, end string) ([]summary.ConsumedDay, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	var out []summary.ConsumedDay
	for _, r := range m.consumed {
		if r.UserID == userID && start <= r.Day && r.Day <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) DailyWeights(userID, start, end string) ([]summary.WeightLog, error) {
	if err := m.before(); err != nil {
		return nil, err
	}
	var out []summary.WeightLog
	for _, l := range m.weights {
		if l.UserID == userID && start <= l.Day && l.Day <= end {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockStore) LatestWeightBefore(userID, day string) (summary.WeightLog, error) {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return summary.WeightLog{}, err
	}
	var latest *summary.WeightLog
	for i, l := range m.weights {
		if l.UserID == userID && l.Day < day {
			latest = &m.weights[i]
		}
	}
	if latest == nil {
		return summary.WeightLog{}, storage.ErrNotFound
	}
	return *latest, nil
}

// --- Mock boundary ---

type mockBoundary struct {
	minDay string
	err    error
}

func (b mockBoundary) MinAllowedDay(userID string) (string, error) {
	return b.minDay, b.err
}

func newFetcher(store *mockStore, minDay string) *Fetcher {
	return NewFetcher(store, mockBoundary{minDay: minDay}, rangecache.New())
}

// --- Tests ---

// A 7-day range with only two stored rows comes back as 7 ordered rows,
// absent days zero-valued.
func TestMeds_DenseFillSevenDays(t *testing.T) {
	store := &mockStore{meds: []summary.MedsDay{
		{UserID: "u1", Day: "2026-01-01", MedCount: 2, SuppCount: 1},
		{UserID: "u1", Day: "2026-01-03", MedCount: 1},
	}}
	f := newFetcher(store, "2026-01-01")

	rows := f.Meds("u1", "2026-01-01", "2026-01-07", OrderNewestFirst)
	if len(rows) != 7 {
		t.Fatalf("expected 7 rows, got %d", len(rows))
	}
	if rows[0].Day != "2026-01-07" || rows[6].Day != "2026-01-01" {
		t.Errorf("expected newest-first ordering, got %s .. %s", rows[0].Day, rows[6].Day)
	}
	if rows[6].MedCount != 2 || rows[6].SuppCount != 1 {
		t.Errorf("stored row lost: %+v", rows[6])
	}
	if rows[4].MedCount != 1 {
		t.Errorf("stored row lost: %+v", rows[4])
	}
	for _, i := range []int{1, 2, 3, 5} {
		if rows[i].MedCount != 0 || rows[i].SuppCount != 0 {
			t.Errorf("expected zero row for %s, got %+v", rows[i].Day, rows[i])
		}
		if rows[i].UserID != "u1" {
			t.Errorf("synthesized row missing user: %+v", rows[i])
		}
	}
}

// A user signed up partway through the requested range only gets days from
// signup onward.
func TestMeds_SignupClampLimitsRange(t *testing.T) {
	store := &mockStore{}
	f := newFetcher(store, "2026-01-04")

	rows := f.Meds("u1", "2026-01-01", "2026-01-07", OrderNewestFirst)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Day != "2026-01-07" || rows[3].Day != "2026-01-04" {
		t.Errorf("expected 2026-01-07 .. 2026-01-04, got %s .. %s", rows[0].Day, rows[3].Day)
	}
}

func TestMeds_ClampBeyondEndIsEmpty(t *testing.T) {
	store := &mockStore{}
	f := newFetcher(store, "2026-02-01")

	rows := f.Meds("u1", "2026-01-01", "2026-01-07", OrderNewestFirst)
	if len(rows) != 0 {
		t.Fatalf("expected empty series, got %d rows", len(rows))
	}
	if store.listCalls != 0 {
		t.Errorf("expected no store reads for a clamped-out range, got %d", store.listCalls)
	}
}

func TestMeds_ExactRangeIsCached(t *testing.T) {
	store := &mockStore{}
	f := newFetcher(store, "2026-01-01")

	f.Meds("u1", "2026-01-01", "2026-01-07", OrderNewestFirst)
	f.Meds("u1", "2026-01-01", "2026-01-07", OrderOldestFirst)

	if store.listCalls != 1 {
		t.Errorf("expected 1 store read, got %d", store.listCalls)
	}
}

func TestMeds_CallersCannotMutateCache(t *testing.T) {
	store := &mockStore{}
	f := newFetcher(store, "2026-01-01")

	rows := f.Meds("u1", "2026-01-01", "2026-01-03", OrderNewestFirst)
	rows[0].MedCount = 999

	again := f.Meds("u1", "2026-01-01", "2026-01-03", OrderNewestFirst)
	if again[0].MedCount != 0 {
		t.Errorf("cached series was mutated through a returned slice: %+v", again[0])
	}
}

func TestMeds_InvalidInputIsEmpty(t *testing.T) {
	store := &mockStore{}
	f := newFetcher(store, "2026-01-01")

	cases := []struct {
		name             string
		user, start, end string
	}{
		{"empty user", "", "2026-01-01", "2026-01-07"},
		{"malformed start", "u1", "2026-1-1", "2026-01-07"},
		{"malformed end", "u1", "2026-01-01", "tomorrow"},
		{"inverted range", "u1", "2026-01-07", "2026-01-01"},
	}
	for _, tc := range cases {
		if rows := f.Meds(tc.user, tc.start, tc.end, OrderNewestFirst); len(rows) != 0 {
			t.Errorf("%s: expected empty series, got %d rows", tc.name, len(rows))
		}
	}
	if store.listCalls != 0 {
		t.Errorf("expected no store reads, got %d", store.listCalls)
	}
}

// A store failure serves an empty series instead of fabricated zeros, and
// the failure itself is never cached.
func TestMeds_StoreFailureDegradesToEmpty(t *testing.T) {
	store := &mockStore{
		meds: []summary.MedsDay{{UserID: "u1", Day: "2026-01-02", MedCount: 1}},
		err:  errors.New("disk gone"),
	}
	f := newFetcher(store, "2026-01-01")

	if rows := f.Meds("u1", "2026-01-01", "2026-01-03", OrderNewestFirst); len(rows) != 0 {
		t.Fatalf("expected empty series on store failure, got %d rows", len(rows))
	}

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	rows := f.Meds("u1", "2026-01-01", "2026-01-03", OrderNewestFirst)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after store recovered, got %d", len(rows))
	}
	if store.listCalls != 2 {
		t.Errorf("expected the failed read to stay uncached, got %d calls", store.listCalls)
	}
}

func TestMeds_ConcurrentMissesCollapse(t *testing.T) {
	store := &mockStore{delay: 10 * time.Millisecond}
	f := newFetcher(store, "2026-01-01")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Meds("u1", "2026-01-01", "2026-01-07", OrderNewestFirst)
		}()
	}
	wg.Wait()

	if store.listCalls != 1 {
		t.Errorf("expected concurrent misses to share 1 store read, got %d", store.listCalls)
	}
}

func TestConsumed_AbsentDaysHaveUnknownStatus(t *testing.T) {
	store := &mockStore{consumed: []summary.ConsumedDay{{
		UserID:    "u1",
		Day:       "2026-01-02",
		Nutrients: summary.Nutrients{Calories: 500},
		Status:    summary.StatusCompleted,
	}}}
	f := newFetcher(store, "2026-01-01")

	rows := f.Consumed("u1", "2026-01-01", "2026-01-03", OrderOldestFirst)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Status != summary.StatusUnknown || rows[2].Status != summary.StatusUnknown {
		t.Errorf("synthesized rows should be status unknown, got %s / %s", rows[0].Status, rows[2].Status)
	}
	if rows[1].Status != summary.StatusCompleted || rows[1].Calories != 500 {
		t.Errorf("stored row lost: %+v", rows[1])
	}
}

func TestWeights_ForwardFillWithinRange(t *testing.T) {
	store := &mockStore{weights: []summary.WeightLog{
		{ID: "w1", UserID: "u1", Day: "2026-01-02", WeightKg: 80},
		{ID: "w2", UserID: "u1", Day: "2026-01-04", WeightKg: 81.5},
	}}
	f := newFetcher(store, "2026-01-01")

	points := f.Weights("u1", "2026-01-01", "2026-01-05", OrderOldestFirst)
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	if points[0].WeightKg != nil {
		t.Errorf("day before first reading should be nil, got %v", *points[0].WeightKg)
	}
	wants := []float64{80, 80, 81.5, 81.5}
	for i, want := range wants {
		p := points[i+1]
		if p.WeightKg == nil || *p.WeightKg != want {
			t.Errorf("day %s: expected %v, got %v", p.Day, want, p.WeightKg)
		}
	}
}

// A reading before the requested range seeds the carry so the first in-range
// days are not spuriously empty.
func TestWeights_SeededFromEarlierReading(t *testing.T) {
	store := &mockStore{weights: []summary.WeightLog{
		{ID: "w0", UserID: "u1", Day: "2025-12-28", WeightKg: 79},
		{ID: "w1", UserID: "u1", Day: "2026-01-03", WeightKg: 80},
	}}
	f := newFetcher(store, "2025-12-01")

	points := f.Weights("u1", "2026-01-01", "2026-01-03", OrderOldestFirst)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for _, p := range points[:2] {
		if p.WeightKg == nil || *p.WeightKg != 79 {
			t.Errorf("day %s: expected seeded 79, got %v", p.Day, p.WeightKg)
		}
	}
	if *points[2].WeightKg != 80 {
		t.Errorf("expected in-range reading 80, got %v", *points[2].WeightKg)
	}
}

func TestRange_FetchesAllDomains(t *testing.T) {
	store := &mockStore{
		meds:     []summary.MedsDay{{UserID: "u1", Day: "2026-01-01", MedCount: 1}},
		exercise: []summary.ExerciseDay{{UserID: "u1", Day: "2026-01-02", ActivityCount: 1, CardioCount: 1}},
		consumed: []summary.ConsumedDay{{UserID: "u1", Day: "2026-01-01", Status: summary.StatusInProgress}},
		weights:  []summary.WeightLog{{ID: "w1", UserID: "u1", Day: "2026-01-01", WeightKg: 80}},
	}
	f := newFetcher(store, "2026-01-01")

	ov := f.Range("u1", "2026-01-01", "2026-01-03", OrderNewestFirst)
	if len(ov.Meds) != 3 || len(ov.Exercise) != 3 || len(ov.Consumed) != 3 || len(ov.Weights) != 3 {
		t.Fatalf("expected 3 rows per domain, got %d/%d/%d/%d",
			len(ov.Meds), len(ov.Exercise), len(ov.Consumed), len(ov.Weights))
	}
	if ov.Meds[0].Day != "2026-01-03" {
		t.Errorf("expected newest-first bundle, got %s first", ov.Meds[0].Day)
	}
}

func TestParseOrder(t *testing.T) {
	cases := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"", OrderNewestFirst, false},
		{"desc", OrderNewestFirst, false},
		{"asc", OrderOldestFirst, false},
		{"sideways", "", true},
	}
	for _, tc := range cases {
		got, err := ParseOrder(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseOrder(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseOrder(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
