package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
	"github.com/jwalitptl/recovery-api/pkg/metrics"
)

// AlertCreator is the slice of the alert service this package needs: the
// companion alert fired on every admitted check-in.
type AlertCreator interface {
	CreateFromSource(ctx context.Context, patientID uuid.UUID, alertType string, severity model.AlertSeverity, message string, origin model.AlertOrigin) (*model.Alert, error)
}

type CheckInService interface {
	// Submit runs the admission gate and, when admitted, persists the
	// check-in and creates the companion triage-feed alert. A rejection is
	// reported through the verdict, not an error.
	Submit(ctx context.Context, patientID uuid.UUID, req *model.SubmitCheckInRequest) (*model.SymptomCheckIn, model.AdmissionVerdict, error)
	Get(ctx context.Context, id uuid.UUID) (*model.SymptomCheckIn, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.SymptomCheckIn, error)
	MarkReviewed(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type Service struct {
	repo        repository.CheckInRepository
	assignments repository.AssignmentRepository
	alerts      AlertCreator
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewService(
	repo repository.CheckInRepository,
	assignments repository.AssignmentRepository,
	alerts AlertCreator,
	clk clock.Clock,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		alerts:      alerts,
		clock:       clk,
		metrics:     m,
		logger:      logger.With().Str("service", "checkin").Logger(),
	}
}

func (s *Service) Submit(ctx context.Context, patientID uuid.UUID, req *model.SubmitCheckInRequest) (*model.SymptomCheckIn, model.AdmissionVerdict, error) {
	if err := validateSubmission(req); err != nil {
		return nil, model.AdmissionVerdict{}, err
	}

	now := s.clock.Now()

	prior, err := s.repo.Latest(ctx, patientID)
	if err != nil {
		return nil, model.AdmissionVerdict{}, fmt.Errorf("failed to load prior check-in: %w", err)
	}

	verdict := EvaluateAdmission(prior, now)
	if !verdict.Allowed {
		s.countAdmission(string(verdict.Reason))
		return nil, verdict, nil
	}

	checkIn := &model.SymptomCheckIn{
		Base: model.Base{
			ID: uuid.New(),
		},
		PatientID:     patientID,
		PainLevel:     req.PainLevel,
		Temperature:   req.Temperature,
		BloodPressure: req.BloodPressure,
		Mood:          model.Mood(req.Mood),
		Notes:         req.Notes,
		ImageRef:      req.ImageRef,
		SubmittedAt:   now,
		SubmittedOn:   dayStart(now),
	}

	if err := s.repo.Create(ctx, checkIn); err != nil {
		// A concurrent submission won the day; report it the same way the
		// gate would have.
		if errors.Is(err, repository.ErrDuplicateDay) {
			s.countAdmission(string(model.RejectDuplicateToday))
			return nil, model.AdmissionVerdict{Allowed: false, Reason: model.RejectDuplicateToday}, nil
		}
		return nil, model.AdmissionVerdict{}, fmt.Errorf("failed to persist check-in: %w", err)
	}

	// Always fire on success: a completion notice for the triage feed,
	// not a clinical warning.
	checkInID := checkIn.ID
	if _, err := s.alerts.CreateFromSource(ctx, patientID, model.AlertTypeCheckInCompleted, model.AlertSeverityNormal,
		"Patient completed their daily symptom check-in",
		model.AlertOrigin{Source: model.AlertSourceCheckIn, Ref: &checkInID},
	); err != nil {
		return nil, model.AdmissionVerdict{}, fmt.Errorf("failed to create check-in alert: %w", err)
	}

	s.countAdmission("accepted")
	s.logger.Info().
		Str("patient_id", patientID.String()).
		Str("checkin_id", checkIn.ID.String()).
		Msg("check-in admitted")

	return checkIn, verdict, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.SymptomCheckIn, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.SymptomCheckIn, error) {
	return s.repo.ListByPatient(ctx, patientID, window)
}

func (s *Service) MarkReviewed(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	checkIn, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, actor, checkIn.PatientID); err != nil {
		return err
	}

	if err := s.repo.MarkReviewed(ctx, id, actor.ID); err != nil {
		return fmt.Errorf("failed to mark check-in reviewed: %w", err)
	}
	return nil
}

// authorize admits admins, and doctors holding an active assignment to the
// patient. Patients never review their own check-ins.
func (s *Service) authorize(ctx context.Context, actor model.Actor, patientID uuid.UUID) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
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
		return apperrors.Forbidden("review requires care staff")
	}
}

func validateSubmission(req *model.SubmitCheckInRequest) error {
	var violations []apperrors.FieldViolation
	if req.PainLevel < 0 || req.PainLevel > 10 {
		violations = append(violations, apperrors.FieldViolation{Field: "pain_level", Message: "must be between 0 and 10"})
	}
	if !model.Mood(req.Mood).Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "mood", Message: "unknown mood"})
	}
	if req.Temperature <= 0 {
		violations = append(violations, apperrors.FieldViolation{Field: "temperature", Message: "must be positive"})
	}
	if len(violations) > 0 {
		return apperrors.Validation(violations)
	}
	return nil
}

func (s *Service) countAdmission(result string) {
	if s.metrics != nil {
		s.metrics.CheckInAdmissions.WithLabelValues(result).Inc()
	}
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
