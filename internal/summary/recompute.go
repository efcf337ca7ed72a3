package summary

import (
	"math"
	"time"
)

// The recompute functions are total: each derives a fresh row from the
// complete current log set for one (user, day), never from a delta. All are
// pure, order-independent and idempotent.

// RecomputeMeds derives the meds summary for one user and day. Legacy
// entries of kind "other" count as medications. A nil result is the delete
// signal: when the last contributing entry is gone the stored row is
// removed, not zeroed.
func RecomputeMeds(userID, day string, logs []MedLog) *MedsDay {
	row := MedsDay{UserID: userID, Day: day}
	for _, l := range logs {
		switch l.Kind {
		case MedKindMed, MedKindOther:
			row.MedCount++
		case MedKindSupp:
			row.SuppCount++
		}
	}
	if row.MedCount == 0 && row.SuppCount == 0 {
		return nil
	}
	return &row
}

// RecomputeExercise derives the exercise summary for one user and day. Only
// cardio entries contribute minutes and distance; nil minutes or distance on
// a raw entry counts as zero. The distance total is rounded to four decimal
// places after summation, never per entry. Nil means no entries and no row.
func RecomputeExercise(userID, day string, logs []ExerciseLog) *ExerciseDay {
	if len(logs) == 0 {
		return nil
	}
	row := ExerciseDay{UserID: userID, Day: day, ActivityCount: len(logs)}
	for _, l := range logs {
		switch l.Category {
		case CategoryCardioMindBody:
			row.CardioCount++
			if l.Minutes != nil {
				row.CardioMinutes += *l.Minutes
			}
			if l.DistanceKm != nil {
				row.CardioDistanceKm += *l.DistanceKm
			}
		case CategoryStrength:
			row.StrengthCount++
		}
	}
	row.CardioDistanceKm = round4(row.CardioDistanceKm)
	return &row
}

// RecomputeConsumed derives the nutrition sums for one user and day. The
// workflow fields are never derived from the log set: status, CreatedAt and
// CompletedAt carry through from prev. A day with no previous row and no
// entries yields nil; a previously touched day keeps its row even when the
// last entry is gone. now stamps CreatedAt on first touch only.
func RecomputeConsumed(userID, day string, logs []ConsumedLog, prev *ConsumedDay, now time.Time) *ConsumedDay {
	if prev == nil && len(logs) == 0 {
		return nil
	}
	row := ConsumedDay{UserID: userID, Day: day, Status: StatusUnknown, CreatedAt: now}
	if prev != nil {
		row.Status = prev.Status
		row.CreatedAt = prev.CreatedAt
		row.CompletedAt = prev.CompletedAt
	}
	for _, l := range logs {
		row.Nutrients.add(l.Nutrients)
	}
	return &row
}

// AffectedDays returns the day keys a log mutation touches: the entry's day
// for inserts and deletes, both days for an update that moved the entry.
// Empty inputs yield no work.
func AffectedDays(oldDay, newDay string) []string {
	switch {
	case oldDay == "" && newDay == "":
		return nil
	case oldDay == "":
		return []string{newDay}
	case newDay == "" || newDay == oldDay:
		return []string{oldDay}
	default:
		return []string{oldDay, newDay}
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
