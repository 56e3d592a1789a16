package model

import (
	"time"

	"github.com/google/uuid"
)

// TimingSlot is a named daily dose slot.
type TimingSlot string

const (
	TimingMorning   TimingSlot = "morning"
	TimingAfternoon TimingSlot = "afternoon"
	TimingNight     TimingSlot = "night"
)

func (t TimingSlot) Valid() bool {
	switch t {
	case TimingMorning, TimingAfternoon, TimingNight:
		return true
	}
	return false
}

type FoodRelation string

const (
	FoodBefore FoodRelation = "before_food"
	FoodAfter  FoodRelation = "after_food"
	FoodAny    FoodRelation = "any"
)

func (f FoodRelation) Valid() bool {
	switch f {
	case FoodBefore, FoodAfter, FoodAny:
		return true
	}
	return false
}

// Medication is a prescribed course with an ordered set of daily timing
// slots and an append-only dose log. The contract forbids duplicate slots
// in Timings; dose records whose slot is not in Timings stay persisted but
// never count toward compliance.
type Medication struct {
	Base
	PatientID    uuid.UUID    `db:"patient_id" json:"patient_id"`
	Name         string       `db:"name" json:"name"`
	Dosage       string       `db:"dosage" json:"dosage"`
	Timings      []TimingSlot `db:"-" json:"timings"`
	FoodRelation FoodRelation `db:"food_relation" json:"food_relation"`
	StartDate    time.Time    `db:"start_date" json:"start_date"`
	EndDate      *time.Time   `db:"end_date" json:"end_date,omitempty"`
	Active       bool         `db:"active" json:"active"`
	Doses        []DoseRecord `db:"-" json:"doses,omitempty"`
}

// HasTiming reports whether slot belongs to the medication's configured set.
func (m *Medication) HasTiming(slot TimingSlot) bool {
	for _, t := range m.Timings {
		if t == slot {
			return true
		}
	}
	return false
}

// DoseRecord logs one dose taken: which calendar date, which slot, and when
// it was actually recorded.
type DoseRecord struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	MedicationID uuid.UUID  `db:"medication_id" json:"medication_id"`
	Date         time.Time  `db:"dose_date" json:"date"`
	Slot         TimingSlot `db:"slot" json:"slot"`
	TakenAt      time.Time  `db:"taken_at" json:"taken_at"`
}

type CreateMedicationRequest struct {
	Name         string     `json:"name" binding:"required"`
	Dosage       string     `json:"dosage"`
	Timings      []string   `json:"timings" binding:"required,min=1"`
	FoodRelation string     `json:"food_relation"`
	StartDate    time.Time  `json:"start_date" binding:"required"`
	EndDate      *time.Time `json:"end_date"`
}

type RecordDoseRequest struct {
	Date time.Time `json:"date" binding:"required"`
	Slot string    `json:"slot" binding:"required"`
}
