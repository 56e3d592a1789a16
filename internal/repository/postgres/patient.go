package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, email, status, procedure_date, adherence_rate, risk_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Status,
		patient.ProcedureDate,
		patient.AdherenceRate,
		patient.RiskLevel,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT * FROM patients ORDER BY created_at DESC`
	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query)
	return patients, err
}

// UpdateAdherenceRate is a single conditional statement so concurrent
// recomputations cannot interleave a read-modify-write.
func (r *patientRepository) UpdateAdherenceRate(ctx context.Context, id uuid.UUID, rate int) error {
	query := `UPDATE patients SET adherence_rate = $1, updated_at = $2 WHERE id = $3 AND adherence_rate <> $1`
	_, err := r.db.ExecContext(ctx, query, rate, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update adherence rate: %w", err)
	}
	return nil
}

func (r *patientRepository) UpdateRiskLevel(ctx context.Context, id uuid.UUID, level model.RiskLevel) error {
	query := `UPDATE patients SET risk_level = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, level, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update risk level: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}
