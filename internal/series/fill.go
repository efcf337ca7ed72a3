package series

import (
	"github.com/daylog-app/daylog/internal/summary"
)

// The fillers expand a sparse row set into one row per day-key, ascending.
// Count domains synthesize zero-valued rows for absent days; weight carries
// the last known reading forward instead.

func fillMeds(userID string, days []string, rows []summary.MedsDay) []summary.MedsDay {
	byDay := make(map[string]summary.MedsDay, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]summary.MedsDay, 0, len(days))
	for _, d := range days {
		if r, ok := byDay[d]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, summary.MedsDay{UserID: userID, Day: d})
	}
	return out
}

func fillExercise(userID string, days []string, rows []summary.ExerciseDay) []summary.ExerciseDay {
	byDay := make(map[string]summary.ExerciseDay, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]summary.ExerciseDay, 0, len(days))
	for _, d := range days {
		if r, ok := byDay[d]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, summary.ExerciseDay{UserID: userID, Day: d})
	}
	return out
}

func fillConsumed(userID string, days []string, rows []summary.ConsumedDay) []summary.ConsumedDay {
	byDay := make(map[string]summary.ConsumedDay, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}
	out := make([]summary.ConsumedDay, 0, len(days))
	for _, d := range days {
		if r, ok := byDay[d]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, summary.ConsumedDay{UserID: userID, Day: d, Status: summary.StatusUnknown})
	}
	return out
}

// fillWeights forward-fills from seed, the most recent reading strictly
// before the range (nil when the user has none). logs holds at most one
// reading per day, ascending.
func fillWeights(userID string, days []string, logs []summary.WeightLog, seed *float64) []WeightPoint {
	byDay := make(map[string]float64, len(logs))
	for _, l := range logs {
		byDay[l.Day] = l.WeightKg
	}
	carry := seed
	out := make([]WeightPoint, 0, len(days))
	for _, d := range days {
		if w, ok := byDay[d]; ok {
			carry = &w
		}
		p := WeightPoint{UserID: userID, Day: d}
		if carry != nil {
			w := *carry
			p.WeightKg = &w
		}
		out = append(out, p)
	}
	return out
}
