package model

import (
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodGood       Mood = "good"
	MoodOkay       Mood = "okay"
	MoodLow        Mood = "low"
	MoodAnxious    Mood = "anxious"
	MoodDistressed Mood = "distressed"
)

func (m Mood) Valid() bool {
	switch m {
	case MoodGood, MoodOkay, MoodLow, MoodAnxious, MoodDistressed:
		return true
	}
	return false
}

// SymptomCheckIn is a patient's daily self-report. Immutable once created
// except for the review fields. SubmittedOn carries the calendar day used
// by the one-per-day uniqueness constraint.
type SymptomCheckIn struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	PainLevel     int        `db:"pain_level" json:"pain_level"`
	Temperature   float64    `db:"temperature" json:"temperature"`
	BloodPressure string     `db:"blood_pressure" json:"blood_pressure,omitempty"`
	Mood          Mood       `db:"mood" json:"mood"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	ImageRef      string     `db:"image_ref" json:"image_ref,omitempty"`
	SubmittedAt   time.Time  `db:"submitted_at" json:"submitted_at"`
	SubmittedOn   time.Time  `db:"submitted_on" json:"-"`
	Reviewed      bool       `db:"reviewed" json:"reviewed"`
	ReviewedBy    *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

type SubmitCheckInRequest struct {
	PainLevel     int     `json:"pain_level" binding:"min=0,max=10"`
	Temperature   float64 `json:"temperature" binding:"required"`
	BloodPressure string  `json:"blood_pressure"`
	Mood          string  `json:"mood" binding:"required"`
	Notes         string  `json:"notes"`
	ImageRef      string  `json:"image_ref"`
}

// RejectionReason tags why the gate refused a check-in.
type RejectionReason string

const (
	RejectDuplicateToday RejectionReason = "duplicate-today"
	RejectCooldown       RejectionReason = "cooldown"
)

// AdmissionVerdict is the gate's decision. It is a returned outcome, not an
// error: callers use Reason and HoursRemaining to render a countdown.
type AdmissionVerdict struct {
	Allowed        bool            `json:"allowed"`
	Reason         RejectionReason `json:"reason,omitempty"`
	HoursRemaining int             `json:"hours_remaining,omitempty"`
}
