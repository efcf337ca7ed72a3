package storage

import (
	"database/sql"
	"fmt"
	"time"
)

func (s *Store) CreateUser(u User) error {
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	if u.WeightUnit == "" {
		u.WeightUnit = "kg"
	}
	_, err := s.db.Exec(`
		INSERT INTO users (id, signup_at, timezone, weight_unit, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.SignupAt.UTC().Format(time.RFC3339), u.Timezone, u.WeightUnit,
		u.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetUser(id string) (User, error) {
	var u User
	var signupAt, createdAt string
	err := s.db.QueryRow(`
		SELECT id, signup_at, timezone, weight_unit, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &signupAt, &u.Timezone, &u.WeightUnit, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	if u.SignupAt, err = time.Parse(time.RFC3339, signupAt); err != nil {
		return User{}, fmt.Errorf("parsing signup_at: %w", err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return User{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return u, nil
}

// UpdateUserSettings changes the mutable profile fields; signup stays fixed.
func (s *Store) UpdateUserSettings(id, timezone, weightUnit string) error {
	res, err := s.db.Exec(`UPDATE users SET timezone = ?, weight_unit = ? WHERE id = ?`,
		timezone, weightUnit, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`
		SELECT id, signup_at, timezone, weight_unit, created_at
		FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []User
	for rows.Next() {
		var u User
		var signupAt, createdAt string
		if err := rows.Scan(&u.ID, &signupAt, &u.Timezone, &u.WeightUnit, &createdAt); err != nil {
			return nil, err
		}
		if u.SignupAt, err = time.Parse(time.RFC3339, signupAt); err != nil {
			return nil, fmt.Errorf("parsing signup_at: %w", err)
		}
		if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}
