package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/daylog-app/daylog/internal/summary"
)

// RefreshDay rederives the summary row for one (user, day, domain) inside a
// single transaction: read the day's raw entries, recompute the row from
// scratch, then upsert or delete it. The transaction and the single-writer
// connection serialize concurrent refreshes. A failed read aborts without
// writes; an existing row is never deleted on the strength of an incomplete
// read. Empty user or day is a no-op, and so is weight, which keeps no
// summary table.
func (s *Store) RefreshDay(domain summary.Domain, userID, day string, now time.Time) error {
	if userID == "" || day == "" {
		return nil
	}

	switch domain {
	case summary.DomainMeds:
		return s.refreshMedsDay(userID, day, now)
	case summary.DomainExercise:
		return s.refreshExerciseDay(userID, day, now)
	case summary.DomainConsumed:
		return s.refreshConsumedDay(userID, day, now)
	case summary.DomainWeight:
		return nil
	default:
		return fmt.Errorf("refreshing unknown domain %q", domain)
	}
}

func (s *Store) refreshMedsDay(userID, day string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning refresh transaction: %w", err)
	}
	defer tx.Rollback()

	logs, err := medLogsTx(tx, userID, day)
	if err != nil {
		return fmt.Errorf("listing med logs: %w", err)
	}

	row := summary.RecomputeMeds(userID, day, logs)
	if row == nil {
		if _, err := tx.Exec(`DELETE FROM med_days WHERE user_id = ? AND day = ?`, userID, day); err != nil {
			return fmt.Errorf("deleting meds day: %w", err)
		}
		return tx.Commit()
	}

	if _, err := tx.Exec(`
		INSERT INTO med_days (user_id, day, med_count, supp_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			med_count = excluded.med_count,
			supp_count = excluded.supp_count,
			updated_at = excluded.updated_at`,
		row.UserID, row.Day, row.MedCount, row.SuppCount,
		now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upserting meds day: %w", err)
	}
	return tx.Commit()
}

func (s *Store) refreshExerciseDay(userID, day string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning refresh transaction: %w", err)
	}
	defer tx.Rollback()

	logs, err := exerciseLogsTx(tx, userID, day)
	if err != nil {
		return fmt.Errorf("listing exercise logs: %w", err)
	}

	row := summary.RecomputeExercise(userID, day, logs)
	if row == nil {
		if _, err := tx.Exec(`DELETE FROM exercise_days WHERE user_id = ? AND day = ?`, userID, day); err != nil {
			return fmt.Errorf("deleting exercise day: %w", err)
		}
		return tx.Commit()
	}

	if _, err := tx.Exec(`
		INSERT INTO exercise_days (user_id, day, activity_count, cardio_count, cardio_minutes, cardio_distance_km, strength_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			activity_count = excluded.activity_count,
			cardio_count = excluded.cardio_count,
			cardio_minutes = excluded.cardio_minutes,
			cardio_distance_km = excluded.cardio_distance_km,
			strength_count = excluded.strength_count,
			updated_at = excluded.updated_at`,
		row.UserID, row.Day, row.ActivityCount, row.CardioCount,
		row.CardioMinutes, row.CardioDistanceKm, row.StrengthCount,
		now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upserting exercise day: %w", err)
	}
	return tx.Commit()
}

func (s *Store) refreshConsumedDay(userID, day string, now time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning refresh transaction: %w", err)
	}
	defer tx.Rollback()

	prev, err := consumedDayTx(tx, userID, day)
	if err != nil {
		return fmt.Errorf("reading consumed day: %w", err)
	}
	logs, err := consumedLogsTx(tx, userID, day)
	if err != nil {
		return fmt.Errorf("listing consumed logs: %w", err)
	}

	row := summary.RecomputeConsumed(userID, day, logs, prev, now.UTC())
	if row == nil {
		// Never touched and nothing logged; leave no row behind.
		return tx.Commit()
	}

	var completedAt any
	if row.CompletedAt != nil {
		completedAt = row.CompletedAt.UTC().Format(time.RFC3339)
	}
	if _, err := tx.Exec(`
		INSERT INTO consumed_days (user_id, day, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg, status, created_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			calories = excluded.calories,
			protein_g = excluded.protein_g,
			carbs_g = excluded.carbs_g,
			fat_g = excluded.fat_g,
			fibre_g = excluded.fibre_g,
			sugar_g = excluded.sugar_g,
			saturated_fat_g = excluded.saturated_fat_g,
			trans_fat_g = excluded.trans_fat_g,
			sodium_mg = excluded.sodium_mg,
			status = excluded.status,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		row.UserID, row.Day,
		row.Calories, row.ProteinG, row.CarbsG, row.FatG, row.FibreG, row.SugarG,
		row.SaturatedFatG, row.TransFatG, row.SodiumMg,
		string(row.Status), row.CreatedAt.UTC().Format(time.RFC3339), completedAt,
		now.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upserting consumed day: %w", err)
	}
	return tx.Commit()
}

// SetConsumedDayStatus records a workflow transition for one consumed day
// and returns the stored row. A never-touched day gets a zero-sum row with
// CreatedAt = now. CompletedAt is stamped once, on the change into
// completed, and survives later transitions away from it.
func (s *Store) SetConsumedDayStatus(userID, day string, status summary.DayStatus, now time.Time) (summary.ConsumedDay, error) {
	now = now.UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("beginning status transaction: %w", err)
	}
	defer tx.Rollback()

	prev, err := consumedDayTx(tx, userID, day)
	if err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("reading consumed day: %w", err)
	}

	var d summary.ConsumedDay
	if prev == nil {
		d = summary.ConsumedDay{UserID: userID, Day: day, Status: status, CreatedAt: now}
		if status == summary.StatusCompleted {
			t := now
			d.CompletedAt = &t
		}
	} else {
		d = *prev
		if status == summary.StatusCompleted && prev.Status != summary.StatusCompleted {
			t := now
			d.CompletedAt = &t
		}
		d.Status = status
	}

	var completedAt any
	if d.CompletedAt != nil {
		completedAt = d.CompletedAt.UTC().Format(time.RFC3339)
	}
	if _, err := tx.Exec(`
		INSERT INTO consumed_days (user_id, day, status, created_at, completed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		d.UserID, d.Day, string(d.Status),
		d.CreatedAt.UTC().Format(time.RFC3339), completedAt,
		now.Format(time.RFC3339)); err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("writing consumed day status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return summary.ConsumedDay{}, fmt.Errorf("committing status transaction: %w", err)
	}
	return d, nil
}

// --- Transaction-scoped reads ---

// The refresh path reads inside its own transaction so the recompute sees
// the same snapshot it writes against. Result sets are drained and closed
// before any write lands on the transaction.

func medLogsTx(tx *sql.Tx, userID, day string) ([]summary.MedLog, error) {
	rows, err := tx.Query(`SELECT id, kind FROM med_logs WHERE user_id = ? AND day = ?`, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []summary.MedLog
	for rows.Next() {
		var l summary.MedLog
		var kind string
		if err := rows.Scan(&l.ID, &kind); err != nil {
			return nil, err
		}
		l.UserID, l.Day, l.Kind = userID, day, summary.MedKind(kind)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func exerciseLogsTx(tx *sql.Tx, userID, day string) ([]summary.ExerciseLog, error) {
	rows, err := tx.Query(`SELECT id, category, minutes, distance_km FROM exercise_logs WHERE user_id = ? AND day = ?`, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []summary.ExerciseLog
	for rows.Next() {
		var l summary.ExerciseLog
		var category string
		var minutes, distance sql.NullFloat64
		if err := rows.Scan(&l.ID, &category, &minutes, &distance); err != nil {
			return nil, err
		}
		l.UserID, l.Day, l.Category = userID, day, summary.ExerciseCategory(category)
		l.Minutes = floatPtr(minutes)
		l.DistanceKm = floatPtr(distance)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func consumedLogsTx(tx *sql.Tx, userID, day string) ([]summary.ConsumedLog, error) {
	rows, err := tx.Query(`
		SELECT id, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg
		FROM consumed_logs WHERE user_id = ? AND day = ?`, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []summary.ConsumedLog
	for rows.Next() {
		var l summary.ConsumedLog
		if err := rows.Scan(&l.ID,
			&l.Calories, &l.ProteinG, &l.CarbsG, &l.FatG, &l.FibreG, &l.SugarG,
			&l.SaturatedFatG, &l.TransFatG, &l.SodiumMg); err != nil {
			return nil, err
		}
		l.UserID, l.Day = userID, day
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// consumedDayTx reads the existing consumed row, nil when the day was never
// touched.
func consumedDayTx(tx *sql.Tx, userID, day string) (*summary.ConsumedDay, error) {
	d, err := scanConsumedDay(tx.QueryRow(`
		SELECT `+consumedDayColumns+`
		FROM consumed_days WHERE user_id = ? AND day = ?`, userID, day))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
