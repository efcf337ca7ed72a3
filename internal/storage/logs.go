package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/daylog-app/daylog/internal/summary"
)

// nullableFloat converts an optional numeric field for insertion; nil maps
// to SQL NULL, never to zero.
func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// --- Med logs ---

func (s *Store) InsertMedLog(l summary.MedLog) error {
	_, err := s.db.Exec(`
		INSERT INTO med_logs (id, user_id, day, kind, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Day, string(l.Kind), l.Name,
		l.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetMedLog(id string) (summary.MedLog, error) {
	var l summary.MedLog
	var kind, createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, day, kind, name, created_at
		FROM med_logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.UserID, &l.Day, &kind, &l.Name, &createdAt)
	if err == sql.ErrNoRows {
		return summary.MedLog{}, ErrNotFound
	}
	if err != nil {
		return summary.MedLog{}, err
	}
	l.Kind = summary.MedKind(kind)
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return summary.MedLog{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateMedLog(l summary.MedLog) error {
	res, err := s.db.Exec(`UPDATE med_logs SET day = ?, kind = ?, name = ? WHERE id = ?`,
		l.Day, string(l.Kind), l.Name, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteMedLog(id string) error {
	res, err := s.db.Exec(`DELETE FROM med_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListMedLogs(userID, day string) ([]summary.MedLog, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, day, kind, name, created_at
		FROM med_logs WHERE user_id = ? AND day = ?
		ORDER BY created_at ASC, id ASC`, userID, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.MedLog
	for rows.Next() {
		var l summary.MedLog
		var kind, createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.Day, &kind, &l.Name, &createdAt); err != nil {
			return nil, err
		}
		l.Kind = summary.MedKind(kind)
		if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// --- Exercise logs ---

func (s *Store) InsertExerciseLog(l summary.ExerciseLog) error {
	_, err := s.db.Exec(`
		INSERT INTO exercise_logs (id, user_id, day, category, minutes, distance_km, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Day, string(l.Category),
		nullableFloat(l.Minutes), nullableFloat(l.DistanceKm), l.Name,
		l.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetExerciseLog(id string) (summary.ExerciseLog, error) {
	var l summary.ExerciseLog
	var category, createdAt string
	var minutes, distance sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT id, user_id, day, category, minutes, distance_km, name, created_at
		FROM exercise_logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.UserID, &l.Day, &category, &minutes, &distance, &l.Name, &createdAt)
	if err == sql.ErrNoRows {
		return summary.ExerciseLog{}, ErrNotFound
	}
	if err != nil {
		return summary.ExerciseLog{}, err
	}
	l.Category = summary.ExerciseCategory(category)
	l.Minutes = floatPtr(minutes)
	l.DistanceKm = floatPtr(distance)
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return summary.ExerciseLog{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateExerciseLog(l summary.ExerciseLog) error {
	res, err := s.db.Exec(`
		UPDATE exercise_logs SET day = ?, category = ?, minutes = ?, distance_km = ?, name = ?
		WHERE id = ?`,
		l.Day, string(l.Category), nullableFloat(l.Minutes), nullableFloat(l.DistanceKm), l.Name, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteExerciseLog(id string) error {
	res, err := s.db.Exec(`DELETE FROM exercise_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListExerciseLogs(userID, day string) ([]summary.ExerciseLog, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, day, category, minutes, distance_km, name, created_at
		FROM exercise_logs WHERE user_id = ? AND day = ?
		ORDER BY created_at ASC, id ASC`, userID, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.ExerciseLog
	for rows.Next() {
		var l summary.ExerciseLog
		var category, createdAt string
		var minutes, distance sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.UserID, &l.Day, &category, &minutes, &distance, &l.Name, &createdAt); err != nil {
			return nil, err
		}
		l.Category = summary.ExerciseCategory(category)
		l.Minutes = floatPtr(minutes)
		l.DistanceKm = floatPtr(distance)
		if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// --- Consumed logs ---

func (s *Store) InsertConsumedLog(l summary.ConsumedLog) error {
	_, err := s.db.Exec(`
		INSERT INTO consumed_logs (id, user_id, day, name, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Day, l.Name,
		l.Calories, l.ProteinG, l.CarbsG, l.FatG, l.FibreG, l.SugarG,
		l.SaturatedFatG, l.TransFatG, l.SodiumMg,
		l.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetConsumedLog(id string) (summary.ConsumedLog, error) {
	var l summary.ConsumedLog
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, day, name, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg, created_at
		FROM consumed_logs WHERE id = ?`, id,
	).Scan(&l.ID, &l.UserID, &l.Day, &l.Name,
		&l.Calories, &l.ProteinG, &l.CarbsG, &l.FatG, &l.FibreG, &l.SugarG,
		&l.SaturatedFatG, &l.TransFatG, &l.SodiumMg, &createdAt)
	if err == sql.ErrNoRows {
		return summary.ConsumedLog{}, ErrNotFound
	}
	if err != nil {
		return summary.ConsumedLog{}, err
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return summary.ConsumedLog{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateConsumedLog(l summary.ConsumedLog) error {
	res, err := s.db.Exec(`
		UPDATE consumed_logs SET day = ?, name = ?, calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, fibre_g = ?, sugar_g = ?, saturated_fat_g = ?, trans_fat_g = ?, sodium_mg = ?
		WHERE id = ?`,
		l.Day, l.Name,
		l.Calories, l.ProteinG, l.CarbsG, l.FatG, l.FibreG, l.SugarG,
		l.SaturatedFatG, l.TransFatG, l.SodiumMg, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteConsumedLog(id string) error {
	res, err := s.db.Exec(`DELETE FROM consumed_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListConsumedLogs(userID, day string) ([]summary.ConsumedLog, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, day, name, calories, protein_g, carbs_g, fat_g, fibre_g, sugar_g, saturated_fat_g, trans_fat_g, sodium_mg, created_at
		FROM consumed_logs WHERE user_id = ? AND day = ?
		ORDER BY created_at ASC, id ASC`, userID, day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []summary.ConsumedLog
	for rows.Next() {
		var l summary.ConsumedLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.UserID, &l.Day, &l.Name,
			&l.Calories, &l.ProteinG, &l.CarbsG, &l.FatG, &l.FibreG, &l.SugarG,
			&l.SaturatedFatG, &l.TransFatG, &l.SodiumMg, &createdAt); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// --- Weight logs ---

func (s *Store) InsertWeightLog(l summary.WeightLog) error {
	_, err := s.db.Exec(`
		INSERT INTO weight_logs (id, user_id, day, weight_kg, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Day, l.WeightKg,
		l.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetWeightLog(id string) (summary.WeightLog, error) {
	var l summary.WeightLog
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, user_id, day, weight_kg, created_at
		FROM weight_logs WHERE id = ?`, id,
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

func (s *Store) UpdateWeightLog(l summary.WeightLog) error {
	res, err := s.db.Exec(`UPDATE weight_logs SET day = ?, weight_kg = ? WHERE id = ?`,
		l.Day, l.WeightKg, l.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteWeightLog(id string) error {
	res, err := s.db.Exec(`DELETE FROM weight_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// requireRow converts a zero-row update or delete into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
