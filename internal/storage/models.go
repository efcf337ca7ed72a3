package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User is an account row. SignupAt bounds how far back day series reach; no
// day before its local day-key is ever filled or returned.
type User struct {
	ID         string
	SignupAt   time.Time
	Timezone   string
	WeightUnit string // "kg" or "lb", display only
	CreatedAt  time.Time
}
