package alert

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
	"github.com/jwalitptl/recovery-api/pkg/messaging"
	"github.com/jwalitptl/recovery-api/pkg/metrics"
)

const eventChannel = "alerts"

// AlertService manages the alert lifecycle and risk-level triage.
//
// Contract note: MarkViewed and TransitionStatus(dismissed) are distinct
// operations on purpose. The product's visible "dismiss" flow calls
// MarkViewed (a per-viewer flag); the dismissed status stays reachable for
// callers that want a terminal transition. Callers choose, the service does
// not conflate them.
type AlertService interface {
	Create(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateAlertRequest) (*model.Alert, error)
	// CreateFromSource is the internal entry point for trigger-driven
	// alerts (check-in admitted, risk level changed).
	CreateFromSource(ctx context.Context, patientID uuid.UUID, alertType string, severity model.AlertSeverity, message string, origin model.AlertOrigin) (*model.Alert, error)
	Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Alert, error)
	ListByPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID, filters *model.AlertFilters) ([]*model.Alert, error)
	AppendAction(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.AppendActionRequest) error
	MarkViewed(ctx context.Context, actor model.Actor, id uuid.UUID) error
	TransitionStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.TransitionStatusRequest) (*model.Alert, error)
	Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error
	UpdateRiskLevel(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.UpdateRiskLevelRequest) (*model.Alert, error)
}

type Service struct {
	repo        repository.AlertRepository
	patients    repository.PatientRepository
	assignments repository.AssignmentRepository
	broker      messaging.Broker
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewService(
	repo repository.AlertRepository,
	patients repository.PatientRepository,
	assignments repository.AssignmentRepository,
	broker messaging.Broker,
	clk clock.Clock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		patients:    patients,
		assignments: assignments,
		broker:      broker,
		clock:       clk,
		metrics:     m,
		logger:      logger.With().Str("service", "alert").Logger(),
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateAlertRequest) (*model.Alert, error) {
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return nil, err
	}

	var violations []apperrors.FieldViolation
	if req.Type == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "type", Message: "is required"})
	}
	if !model.AlertSeverity(req.Severity).Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "severity", Message: "unknown severity"})
	}
	if len(violations) > 0 {
		return nil, apperrors.Validation(violations)
	}

	actorID := actor.ID
	return s.create(ctx, patientID, req.Type, model.AlertSeverity(req.Severity), req.Message,
		model.AlertOrigin{Source: model.AlertSourceManual, Ref: &actorID})
}

func (s *Service) CreateFromSource(ctx context.Context, patientID uuid.UUID, alertType string, severity model.AlertSeverity, message string, origin model.AlertOrigin) (*model.Alert, error) {
	return s.create(ctx, patientID, alertType, severity, message, origin)
}

func (s *Service) create(ctx context.Context, patientID uuid.UUID, alertType string, severity model.AlertSeverity, message string, origin model.AlertOrigin) (*model.Alert, error) {
	alert := &model.Alert{
		Base: model.Base{
			ID: uuid.New(),
		},
		PatientID: patientID,
		Type:      alertType,
		Severity:  severity,
		Message:   message,
		Status:    model.AlertStatusActive,
		Origin:    origin,
	}

	if err := s.repo.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AlertsOpened.WithLabelValues(string(severity)).Inc()
	}
	s.publish(ctx, "alert.created", alert)
	s.logger.Info().
		Str("alert_id", alert.ID.String()).
		Str("patient_id", patientID.String()).
		Str("severity", string(severity)).
		Msg("alert created")

	return alert, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Alert, error) {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, alert.PatientID); err != nil {
		return nil, err
	}
	return alert, nil
}

func (s *Service) ListByPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID, filters *model.AlertFilters) ([]*model.Alert, error) {
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return nil, err
	}
	return s.repo.ListByPatient(ctx, patientID, filters)
}

// AppendAction adds an audit entry without touching status. Any authorized
// actor may log a free-text verb.
func (s *Service) AppendAction(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.AppendActionRequest) error {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, alert.PatientID); err != nil {
		return err
	}

	return s.appendAction(ctx, id, actor.ID, req.Verb, req.Notes)
}

// MarkViewed adds the actor to the alert's viewer set; re-viewing is a
// no-op.
func (s *Service) MarkViewed(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, alert.PatientID); err != nil {
		return err
	}

	if err := s.repo.AddViewer(ctx, id, actor.ID); err != nil {
		return fmt.Errorf("failed to mark alert viewed: %w", err)
	}
	return nil
}

func (s *Service) TransitionStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.TransitionStatusRequest) (*model.Alert, error) {
	target := model.AlertStatus(req.Status)
	if !target.Terminal() {
		return nil, apperrors.Validation([]apperrors.FieldViolation{
			{Field: "status", Message: "must be resolved or dismissed"},
		})
	}

	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, alert.PatientID); err != nil {
		return nil, err
	}

	// Terminal states admit no transition to a different status.
	// Re-resolving is allowed and restamps the resolver: last resolver
	// wins, no conflict detection.
	if alert.Status.Terminal() && alert.Status != target {
		return nil, apperrors.BadRequest(fmt.Sprintf("alert already %s", alert.Status), nil)
	}

	wasActive := alert.Status == model.AlertStatusActive
	alert.Status = target
	if target == model.AlertStatusResolved {
		actorID := actor.ID
		now := s.clock.Now()
		alert.ResolvedBy = &actorID
		alert.ResolvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, alert); err != nil {
		return nil, err
	}

	if err := s.appendAction(ctx, id, actor.ID, string(target), req.Notes); err != nil {
		return nil, err
	}

	if wasActive && s.metrics != nil {
		s.metrics.AlertsResolved.Inc()
	}
	s.publish(ctx, "alert.status_changed", alert)

	return alert, nil
}

// Delete is a hard delete restricted to care staff; the core never deletes
// alerts on its own.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if actor.Role != model.RoleDoctor && actor.Role != model.RoleAdmin {
		return apperrors.Forbidden("delete requires care staff")
	}

	alert, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, alert.PatientID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "alert.deleted", alert)
	return nil
}

func (s *Service) appendAction(ctx context.Context, alertID, actorID uuid.UUID, verb, notes string) error {
	action := &model.AlertAction{
		ID:      uuid.New(),
		AlertID: alertID,
		ActorID: actorID,
		Verb:    verb,
		Notes:   notes,
		At:      s.clock.Now(),
	}
	if err := s.repo.AppendAction(ctx, action); err != nil {
		return fmt.Errorf("failed to append alert action: %w", err)
	}
	return nil
}

// authorize admits admins, the patient acting on their own record, and
// doctors with an active assignment.
func (s *Service) authorize(ctx context.Context, actor model.Actor, patientID uuid.UUID) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if actor.ID == patientID {
			return nil
		}
		return apperrors.Forbidden("patients may only access their own alerts")
	case model.RoleDoctor:
		ok, err := s.assignments.HasActiveAssignment(ctx, actor.ID, patientID)
		if err != nil {
			return fmt.Errorf("failed to check assignment: %w", err)
		}
		if !ok {
			return apperrors.Forbidden("no active assignment to patient")
		}
		return nil
	default:
		return apperrors.Forbidden("unknown role")
	}
}

// publish is best-effort; a broker outage must not fail the mutation that
// already committed.
func (s *Service) publish(ctx context.Context, eventType string, alert *model.Alert) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{Type: eventType, Payload: alert}
	if err := s.broker.Publish(ctx, eventChannel, msg); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish alert event")
	}
}
