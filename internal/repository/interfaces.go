package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recovery-api/internal/model"
)

// ErrDuplicateDay is returned by CheckInRepository.Create when the
// patient/calendar-day uniqueness constraint rejects the insert. The gate
// relies on this to stay race-free under concurrent submissions.
var ErrDuplicateDay = errors.New("check-in already exists for this day")

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
	// UpdateAdherenceRate overwrites the cached rate only when it differs,
	// in a single statement.
	UpdateAdherenceRate(ctx context.Context, id uuid.UUID, rate int) error
	UpdateRiskLevel(ctx context.Context, id uuid.UUID, level model.RiskLevel) error
}

type TaskRepository interface {
	Create(ctx context.Context, task *model.RecoveryTask) error
	Get(ctx context.Context, id uuid.UUID) (*model.RecoveryTask, error)
	// ListByPatient filters on scheduled_time when window is non-nil.
	ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.RecoveryTask, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error
}

type MedicationRepository interface {
	Create(ctx context.Context, med *model.Medication) error
	Get(ctx context.Context, id uuid.UUID) (*model.Medication, error)
	// ListActiveByPatient returns active medications with their dose
	// records loaded.
	ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error)
	AddDose(ctx context.Context, dose *model.DoseRecord) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type CheckInRepository interface {
	// Create persists the check-in; returns ErrDuplicateDay when one
	// already exists for (patient, submitted_on).
	Create(ctx context.Context, checkIn *model.SymptomCheckIn) error
	Get(ctx context.Context, id uuid.UUID) (*model.SymptomCheckIn, error)
	// Latest returns the most recent check-in by submission time, or nil
	// when the patient has none.
	Latest(ctx context.Context, patientID uuid.UUID) (*model.SymptomCheckIn, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.SymptomCheckIn, error)
	MarkReviewed(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID) error
}

type AlertRepository interface {
	Create(ctx context.Context, alert *model.Alert) error
	Get(ctx context.Context, id uuid.UUID) (*model.Alert, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.AlertFilters) ([]*model.Alert, error)
	AppendAction(ctx context.Context, action *model.AlertAction) error
	// AddViewer is an idempotent set-add; re-adding a viewer is a no-op.
	AddViewer(ctx context.Context, alertID, actorID uuid.UUID) error
	UpdateStatus(ctx context.Context, alert *model.Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type AssignmentRepository interface {
	HasActiveAssignment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error)
}
