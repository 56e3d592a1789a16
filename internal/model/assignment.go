package model

import (
	"time"

	"github.com/google/uuid"
)

// Assignment proves an active doctor-patient relationship. Read-only here;
// it is managed by the staffing system.
type Assignment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
