package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/recovery-api/internal/repository"
)

type assignmentRepository struct {
	db *sqlx.DB
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) HasActiveAssignment(ctx context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM assignments WHERE doctor_id = $1 AND patient_id = $2 AND active = true)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check assignment: %w", err)
	}
	return exists, nil
}
