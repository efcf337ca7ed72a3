package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/daylog-app/daylog/internal/summary"
)

// --- Meds days ---

func (s *Store) GetMedsDay(userID, day string) (summary.MedsDay, error) {
	var d summary.MedsDay
	err := s.db.QueryRow(`
		SELECT user_id, day, med_count, supp_count
		FROM med_days WHERE user_id = ? AND day = ?`, userID, day,
	).Scan(&d.UserID, &d.Day, &d.MedCount, &d.SuppCount)
	if err == sql.ErrNoRows {
		return summary.MedsDay{}, ErrNotFound
	}
	return d, err
}

// ListMedsDays returns the stored meds rows inside [start,end], ascending by
// day. Days without a row are simply absent; densifying is the caller's job.
func (s *Store) ListMedsDays(userID, start, end string) ([]summary.MedsDay, error) {
	rows, err := s.db.Query(`
		SELECT user_id, day, med_count, supp_count
		FROM med_days WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`, userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.MedsDay
	for rows.Next() {
		var d summary.MedsDay
		if err := rows.Scan(&d.UserID, &d.Day, &d.MedCount, &d.SuppCount); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// --- Exercise days ---

func (s *Store) GetExerciseDay(userID, day string) (summary.ExerciseDay, error) {
	var d summary.ExerciseDay
	err := s.db.QueryRow(`
		SELECT user_id, day, activity_count, cardio_count, cardio_minutes, cardio_distance_km, strength_count
		FROM exercise_days WHERE user_id = ? AND day = ?`, userID, day,
	).Scan(&d.UserID, &d.Day, &d.ActivityCount, &d.CardioCount, &d.CardioMinutes, &d.CardioDistanceKm, &d.StrengthCount)
	if err == sql.ErrNoRows {
		return summary.ExerciseDay{}, ErrNotFound
	}
	return d, err
}

func (s *Store) ListExerciseDays(userID, start, end string) ([]summary.ExerciseDay, error) {
	rows, err := s.db.Query(`
		SELECT user_id, day, activity_count, cardio_count, cardio_minutes, cardio_distance_km, strength_count
		FROM exercise_days WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`, userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.ExerciseDay
	for rows.Next() {
		var d summary.ExerciseDay
		if err := rows.Scan(&d.UserID, &d.Day, &d.ActivityCount, &d.CardioCount, &d.CardioMinutes, &d.CardioDistanceKm, &d.StrengthCount); err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// --- Consumed days ---

// scanConsumedDay decodes one consumed_days row from either a QueryRow or a
// rows iterator.
func scanConsumedDay(sc interface{ Scan(dest ...any) error }) (summary.ConsumedDay, error) {
	var d summary.ConsumedDay
	var status, createdAt string
	var completedAt sql.NullString
	err := sc.Scan(&d.UserID, &d.Day,
		&d.Calories, &d.ProteinG, &d.CarbsG, &d.FatG, &d.FibreG, &d.SugarG,
		&d.SaturatedFatG, &d.TransFatG, &d.SodiumMg,
		&status, &createdAt, &completedAt)
	if err != nil {
		return summary.ConsumedDay{}, err
	}
	d.Status = summary.DayStatus(status)
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339, completedAt.String)
		if err != nil {
			return summary.ConsumedDay{}, fmt.Errorf("parsing completed_at: %w", err)
		}
		d.CompletedAt = &t
	}
	return d, nil
}

const consumedDayColumns = `user_id, day, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg, status, created_at, completed_at`

func (s *Store) GetConsumedDay(userID, day string) (summary.ConsumedDay, error) {
	d, err := scanConsumedDay(s.db.QueryRow(`
		SELECT `+consumedDayColumns+`
		FROM consumed_days WHERE user_id = ? AND day = ?`, userID, day))
	if err == sql.ErrNoRows {
		return summary.ConsumedDay{}, ErrNotFound
	}
	return d, err
}

func (s *Store) ListConsumedDays(userID, start, end string) ([]summary.ConsumedDay, error) {
	rows, err := s.db.Query(`
		SELECT `+consumedDayColumns+`
		FROM consumed_days WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC`, userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.ConsumedDay
	for rows.Next() {
		d, err := scanConsumedDay(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// --- Weight reads ---

// DailyWeights returns at most one weight entry per day inside [start,end],
// ascending by day. When a day holds several entries the most recent one
// wins.
func (s *Store) DailyWeights(userID, start, end string) ([]summary.WeightLog, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, day, weight_kg, created_at
		FROM weight_logs WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC, created_at ASC, id ASC`, userID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.WeightLog
	for rows.Next() {
		var l summary.WeightLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.Day, &l.WeightKg, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if n := len(results); n > 0 && results[n-1].Day == l.Day {
			results[n-1] = l
		} else {
			results = append(results, l)
		}
	}
	return results, rows.Err()
}

// LatestWeightBefore returns the newest weight entry strictly before day,
// used to seed forward-filling at a range start.
func (s *Store) LatestWeightBefore(userID, day string) (summary.WeightLog, error) {
	var l summary.WeightLog
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, day, weight_kg, created_at
		FROM weight_logs WHERE user_id = ? AND day < ?
		ORDER BY day DESC, created_at DESC, id DESC LIMIT 1`, userID, day,
	).Scan(&l.ID, &l.UserID, &l.Day, &l.WeightKg, &createdAt)
	if err == sql.ErrNoRows {
		return summary.WeightLog{}, ErrNotFound
	}
	if err != nil {
		return summary.WeightLog{}, err
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return summary.WeightLog{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return l, nil
}
