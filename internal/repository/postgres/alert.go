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

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

type alertRow struct {
	model.Alert
	OriginSource model.AlertSource `db:"origin_source"`
	OriginRef    *uuid.UUID        `db:"origin_ref"`
}

func (r *alertRepository) Create(ctx context.Context, alert *model.Alert) error {
	query := `
		INSERT INTO alerts (id, patient_id, type, severity, message, status, origin_source, origin_ref, resolved_by, resolved_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.PatientID,
		alert.Type,
		alert.Severity,
		alert.Message,
		alert.Status,
		alert.Origin.Source,
		alert.Origin.Ref,
		alert.ResolvedBy,
		alert.ResolvedAt,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *alertRepository) Get(ctx context.Context, id uuid.UUID) (*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE id = $1`
	var row alertRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("alert", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	alert := row.Alert
	alert.Origin = model.AlertOrigin{Source: row.OriginSource, Ref: row.OriginRef}
	if err := r.loadActions(ctx, &alert); err != nil {
		return nil, err
	}
	if err := r.loadViewers(ctx, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, filters *model.AlertFilters) ([]*model.Alert, error) {
	query := `SELECT * FROM alerts WHERE patient_id = $1`
	args := []interface{}{patientID}

	if filters != nil {
		if filters.Status != "" {
			args = append(args, filters.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filters.Severity != "" {
			args = append(args, filters.Severity)
			query += fmt.Sprintf(" AND severity = $%d", len(args))
		}
	}
	query += ` ORDER BY created_at DESC`

	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	alerts := make([]*model.Alert, 0, len(rows))
	for i := range rows {
		alert := rows[i].Alert
		alert.Origin = model.AlertOrigin{Source: rows[i].OriginSource, Ref: rows[i].OriginRef}
		if err := r.loadActions(ctx, &alert); err != nil {
			return nil, err
		}
		if err := r.loadViewers(ctx, &alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}
	return alerts, nil
}

func (r *alertRepository) AppendAction(ctx context.Context, action *model.AlertAction) error {
	query := `
		INSERT INTO alert_actions (id, alert_id, actor_id, verb, notes, at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		action.ID,
		action.AlertID,
		action.ActorID,
		action.Verb,
		action.Notes,
		action.At,
	)
	if err != nil {
		return fmt.Errorf("failed to append alert action: %w", err)
	}
	return nil
}

// AddViewer is idempotent: the primary key on (alert_id, actor_id) makes
// re-adding a no-op.
func (r *alertRepository) AddViewer(ctx context.Context, alertID, actorID uuid.UUID) error {
	query := `
		INSERT INTO alert_viewers (alert_id, actor_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (alert_id, actor_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, alertID, actorID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add alert viewer: %w", err)
	}
	return nil
}

func (r *alertRepository) UpdateStatus(ctx context.Context, alert *model.Alert) error {
	query := `UPDATE alerts SET status = $1, resolved_by = $2, resolved_at = $3, updated_at = $4 WHERE id = $5`
	res, err := r.db.ExecContext(ctx, query,
		alert.Status,
		alert.ResolvedBy,
		alert.ResolvedAt,
		time.Now(),
		alert.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("alert", nil)
	}
	return nil
}

func (r *alertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM alerts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("alert", nil)
	}
	return nil
}

func (r *alertRepository) loadActions(ctx context.Context, alert *model.Alert) error {
	query := `SELECT * FROM alert_actions WHERE alert_id = $1 ORDER BY at`
	if err := r.db.SelectContext(ctx, &alert.Actions, query, alert.ID); err != nil {
		return fmt.Errorf("failed to load actions for alert %s: %w", alert.ID, err)
	}
	return nil
}

func (r *alertRepository) loadViewers(ctx context.Context, alert *model.Alert) error {
	query := `SELECT actor_id FROM alert_viewers WHERE alert_id = $1 ORDER BY viewed_at`
	if err := r.db.SelectContext(ctx, &alert.ViewedBy, query, alert.ID); err != nil {
		return fmt.Errorf("failed to load viewers for alert %s: %w", alert.ID, err)
	}
	return nil
}
