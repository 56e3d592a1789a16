package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

type checkInRepository struct {
	db *sqlx.DB
}

func NewCheckInRepository(db *sqlx.DB) repository.CheckInRepository {
	return &checkInRepository{db: db}
}

// Create relies on the unique index on (patient_id, submitted_on) to close
// the gate's check-then-insert window: the second of two concurrent
// same-day submissions gets ErrDuplicateDay.
func (r *checkInRepository) Create(ctx context.Context, checkIn *model.SymptomCheckIn) error {
	query := `
		INSERT INTO symptom_checkins (id, patient_id, pain_level, temperature, blood_pressure, mood, notes, image_ref, submitted_at, submitted_on, reviewed, reviewed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	checkIn.CreatedAt = time.Now()
	checkIn.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		checkIn.ID,
		checkIn.PatientID,
		checkIn.PainLevel,
		checkIn.Temperature,
		checkIn.BloodPressure,
		checkIn.Mood,
		checkIn.Notes,
		checkIn.ImageRef,
		checkIn.SubmittedAt,
		checkIn.SubmittedOn,
		checkIn.Reviewed,
		checkIn.ReviewedBy,
		checkIn.CreatedAt,
		checkIn.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return repository.ErrDuplicateDay
		}
		return fmt.Errorf("failed to create check-in: %w", err)
	}
	return nil
}

func (r *checkInRepository) Get(ctx context.Context, id uuid.UUID) (*model.SymptomCheckIn, error) {
	query := `SELECT * FROM symptom_checkins WHERE id = $1`
	var checkIn model.SymptomCheckIn
	err := r.db.GetContext(ctx, &checkIn, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("check-in", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in: %w", err)
	}
	return &checkIn, nil
}

func (r *checkInRepository) Latest(ctx context.Context, patientID uuid.UUID) (*model.SymptomCheckIn, error) {
	query := `SELECT * FROM symptom_checkins WHERE patient_id = $1 ORDER BY submitted_at DESC LIMIT 1`
	var checkIn model.SymptomCheckIn
	err := r.db.GetContext(ctx, &checkIn, query, patientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return &checkIn, nil
}

func (r *checkInRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.SymptomCheckIn, error) {
	query := `SELECT * FROM symptom_checkins WHERE patient_id = $1`
	args := []interface{}{patientID}

	if window != nil {
		query += ` AND submitted_at >= $2 AND submitted_at <= $3`
		args = append(args, window.Start, window.End)
	}
	query += ` ORDER BY submitted_at DESC`

	var checkIns []*model.SymptomCheckIn
	if err := r.db.SelectContext(ctx, &checkIns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list check-ins: %w", err)
	}
	return checkIns, nil
}

func (r *checkInRepository) MarkReviewed(ctx context.Context, id uuid.UUID, reviewerID uuid.UUID) error {
	query := `UPDATE symptom_checkins SET reviewed = true, reviewed_by = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, reviewerID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark check-in reviewed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("check-in", nil)
	}
	return nil
}
