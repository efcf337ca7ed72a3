package summary

import "time"

// OptimisticConsumed synthesizes the provisional consumed-day row shown
// immediately after a status change, before the authoritative recompute
// lands. It never invents sums: numeric totals and CreatedAt carry forward
// from prev untouched; with no previous row they are zero. CompletedAt
// follows the stored row's stamp-once rule: set on the change into
// StatusCompleted, preserved on every other transition. The provisional row
// is superseded wholesale by the next authoritative row; last writer wins,
// no merge.
func OptimisticConsumed(prev *ConsumedDay, userID, day string, status DayStatus, now time.Time) ConsumedDay {
	row := ConsumedDay{UserID: userID, Day: day, CreatedAt: now}
	if prev != nil {
		row = *prev
	}
	if status == StatusCompleted && row.Status != StatusCompleted {
		t := now
		row.CompletedAt = &t
	}
	row.Status = status
	return row
}
