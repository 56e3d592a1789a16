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

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.RecoveryTask) error {
	query := `
		INSERT INTO recovery_tasks (id, patient_id, title, type, priority, scheduled_time, completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	task.CreatedAt = time.Now()
	task.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.PatientID,
		task.Title,
		task.Type,
		task.Priority,
		task.ScheduledTime,
		task.Completed,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.RecoveryTask, error) {
	query := `SELECT * FROM recovery_tasks WHERE id = $1`
	var task model.RecoveryTask
	err := r.db.GetContext(ctx, &task, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("task", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.RecoveryTask, error) {
	query := `SELECT * FROM recovery_tasks WHERE patient_id = $1`
	args := []interface{}{patientID}

	if window != nil {
		query += ` AND scheduled_time >= $2 AND scheduled_time <= $3`
		args = append(args, window.Start, window.End)
	}
	query += ` ORDER BY scheduled_time`

	var tasks []*model.RecoveryTask
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	query := `UPDATE recovery_tasks SET completed = true, completed_at = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, completedAt, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("task", nil)
	}
	return nil
}
