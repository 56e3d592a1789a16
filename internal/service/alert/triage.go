package alert

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/recovery-api/internal/model"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

// severityForRisk maps the assigned risk level to the audit alert's
// severity.
func severityForRisk(level model.RiskLevel) model.AlertSeverity {
	switch level {
	case model.RiskLevelCritical:
		return model.AlertSeverityCritical
	case model.RiskLevelMonitor:
		return model.AlertSeverityWarning
	default:
		return model.AlertSeverityNormal
	}
}

// UpdateRiskLevel reclassifies the patient and writes an audit alert.
// Every call creates an alert, including a reassignment of the current
// value: the alert stream is the only full history of risk changes, so a
// no-op value is still a recorded clinical decision.
func (s *Service) UpdateRiskLevel(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.UpdateRiskLevelRequest) (*model.Alert, error) {
	if actor.Role != model.RoleDoctor && actor.Role != model.RoleAdmin {
		return nil, apperrors.Forbidden("risk reclassification requires care staff")
	}
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return nil, err
	}

	level := model.RiskLevel(req.RiskLevel)
	if !level.Valid() {
		return nil, apperrors.Validation([]apperrors.FieldViolation{
			{Field: "risk_level", Message: "must be stable, monitor or critical"},
		})
	}

	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	previous := patient.RiskLevel

	if err := s.patients.UpdateRiskLevel(ctx, patientID, level); err != nil {
		return nil, fmt.Errorf("failed to update risk level: %w", err)
	}

	message := fmt.Sprintf("Risk level changed from %s to %s", previous, level)
	if req.Notes != "" {
		message = fmt.Sprintf("%s: %s", message, req.Notes)
	}

	actorID := actor.ID
	return s.create(ctx, patientID, model.AlertTypeRiskLevelChanged, severityForRisk(level), message,
		model.AlertOrigin{Source: model.AlertSourceDoctorReview, Ref: &actorID})
}
