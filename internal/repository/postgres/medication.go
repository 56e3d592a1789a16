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

type medicationRepository struct {
	db *sqlx.DB
}

func NewMedicationRepository(db *sqlx.DB) repository.MedicationRepository {
	return &medicationRepository{db: db}
}

// medicationRow mirrors the medications table; timings live in a text[]
// column and doses in a side table.
type medicationRow struct {
	model.Medication
	TimingsRaw pq.StringArray `db:"timings"`
}

func (r *medicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medications (id, patient_id, name, dosage, timings, food_relation, start_date, end_date, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	med.CreatedAt = time.Now()
	med.UpdatedAt = time.Now()

	timings := make(pq.StringArray, len(med.Timings))
	for i, t := range med.Timings {
		timings[i] = string(t)
	}

	_, err := r.db.ExecContext(ctx, query,
		med.ID,
		med.PatientID,
		med.Name,
		med.Dosage,
		timings,
		med.FoodRelation,
		med.StartDate,
		med.EndDate,
		med.Active,
		med.CreatedAt,
		med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	query := `SELECT * FROM medications WHERE id = $1`
	var row medicationRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("medication", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	med := row.Medication
	med.Timings = toTimings(row.TimingsRaw)
	if err := r.loadDoses(ctx, &med); err != nil {
		return nil, err
	}
	return &med, nil
}

func (r *medicationRepository) ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error) {
	query := `SELECT * FROM medications WHERE patient_id = $1 AND active = true ORDER BY start_date`
	var rows []medicationRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}

	meds := make([]*model.Medication, 0, len(rows))
	for i := range rows {
		med := rows[i].Medication
		med.Timings = toTimings(rows[i].TimingsRaw)
		if err := r.loadDoses(ctx, &med); err != nil {
			return nil, err
		}
		meds = append(meds, &med)
	}
	return meds, nil
}

func (r *medicationRepository) AddDose(ctx context.Context, dose *model.DoseRecord) error {
	query := `
		INSERT INTO dose_records (id, medication_id, dose_date, slot, taken_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		dose.ID,
		dose.MedicationID,
		dose.Date,
		dose.Slot,
		dose.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record dose: %w", err)
	}
	return nil
}

func (r *medicationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE medications SET active = false, updated_at = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("medication", nil)
	}
	return nil
}

func (r *medicationRepository) loadDoses(ctx context.Context, med *model.Medication) error {
	query := `SELECT * FROM dose_records WHERE medication_id = $1 ORDER BY taken_at`
	if err := r.db.SelectContext(ctx, &med.Doses, query, med.ID); err != nil {
		return fmt.Errorf("failed to load doses for medication %s: %w", med.ID, err)
	}
	return nil
}

func toTimings(raw pq.StringArray) []model.TimingSlot {
	timings := make([]model.TimingSlot, len(raw))
	for i, t := range raw {
		timings[i] = model.TimingSlot(t)
	}
	return timings
}
