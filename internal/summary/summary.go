// Package summary holds the pure domain core: raw log entries, per-day
// summary rows, and the recompute functions that derive one from the other.
// Nothing here performs I/O or reads ambient time; callers pass day-keys and
// timestamps explicitly.
package summary

import (
	"fmt"
	"time"
)

// Domain identifies one per-day summary stream.
type Domain string

const (
	DomainMeds     Domain = "meds"
	DomainExercise Domain = "exercise"
	DomainConsumed Domain = "consumed"
	DomainWeight   Domain = "weight"
)

// Domains lists every stream, in display order.
var Domains = []Domain{DomainMeds, DomainExercise, DomainConsumed, DomainWeight}

// ParseDomain validates a domain name arriving from an external surface.
func ParseDomain(s string) (Domain, error) {
	switch d := Domain(s); d {
	case DomainMeds, DomainExercise, DomainConsumed, DomainWeight:
		return d, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// MedKind classifies a medication log entry.
type MedKind string

const (
	MedKindMed  MedKind = "med"
	MedKindSupp MedKind = "supp"
	// MedKindOther is a legacy value; early entries stored medications as
	// "other" and it counts toward the med tally.
	MedKindOther MedKind = "other"
)

// ParseMedKind validates a med kind arriving from an external surface.
func ParseMedKind(s string) (MedKind, error) {
	switch k := MedKind(s); k {
	case MedKindMed, MedKindSupp, MedKindOther:
		return k, nil
	}
	return "", fmt.Errorf("unknown med kind %q", s)
}

// ExerciseCategory classifies an exercise log entry.
type ExerciseCategory string

const (
	CategoryCardioMindBody ExerciseCategory = "cardio_mind_body"
	CategoryStrength       ExerciseCategory = "strength"
)

// ParseExerciseCategory validates an exercise category arriving from an
// external surface.
func ParseExerciseCategory(s string) (ExerciseCategory, error) {
	switch c := ExerciseCategory(s); c {
	case CategoryCardioMindBody, CategoryStrength:
		return c, nil
	}
	return "", fmt.Errorf("unknown exercise category %q", s)
}

// DayStatus is the consumed-day workflow state. Completed is terminal for
// the purpose of stamping CompletedAt.
type DayStatus string

const (
	StatusUnknown    DayStatus = "unknown"
	StatusInProgress DayStatus = "in_progress"
	StatusCompleted  DayStatus = "completed"
)

// ParseDayStatus validates a workflow status arriving from an external
// surface.
func ParseDayStatus(s string) (DayStatus, error) {
	switch st := DayStatus(s); st {
	case StatusUnknown, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown day status %q", s)
}

type MedLog struct {
	ID        string
	UserID    string
	Day       string
	Kind      MedKind
	Name      string
	CreatedAt time.Time
}

type ExerciseLog struct {
	ID         string
	UserID     string
	Day        string
	Category   ExerciseCategory
	Minutes    *float64 // nil when not recorded
	DistanceKm *float64 // nil when not recorded
	Name       string
	CreatedAt  time.Time
}

// Nutrients are the summed nutrition fields shared by consumed entries and
// the consumed-day row.
type Nutrients struct {
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	FibreG        float64
	SugarG        float64
	SaturatedFatG float64
	TransFatG     float64
	SodiumMg      float64
}

func (n *Nutrients) add(o Nutrients) {
	n.Calories += o.Calories
	n.ProteinG += o.ProteinG
	n.CarbsG += o.CarbsG
	n.FatG += o.FatG
	n.FibreG += o.FibreG
	n.SugarG += o.SugarG
	n.SaturatedFatG += o.SaturatedFatG
	n.TransFatG += o.TransFatG
	n.SodiumMg += o.SodiumMg
}

type ConsumedLog struct {
	ID     string
	UserID string
	Day    string
	Name   string
	Nutrients
	CreatedAt time.Time
}

type WeightLog struct {
	ID        string
	UserID    string
	Day       string
	WeightKg  float64
	CreatedAt time.Time
}

// MedsDay is the meds summary row. A row exists only while at least one
// count is nonzero.
type MedsDay struct {
	UserID    string
	Day       string
	MedCount  int
	SuppCount int
}

// ExerciseDay is the exercise summary row. A row exists only while
// ActivityCount is nonzero.
type ExerciseDay struct {
	UserID           string
	Day              string
	ActivityCount    int
	CardioCount      int
	CardioMinutes    float64
	CardioDistanceKm float64
	StrengthCount    int
}

// ConsumedDay is the consumed summary row. Unlike meds and exercise its
// existence follows the status workflow, not a nonzero-sum rule: once a day
// is touched the row stays, even at zero sums. CreatedAt is fixed at first
// touch; CompletedAt is stamped on the change into StatusCompleted.
type ConsumedDay struct {
	UserID string
	Day    string
	Nutrients
	Status      DayStatus
	CreatedAt   time.Time
	CompletedAt *time.Time
}
