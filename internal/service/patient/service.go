package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/internal/repository"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

type PatientService interface {
	CreatePatient(ctx context.Context, patient *model.Patient) error
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]*model.Patient, error)

	CreateTask(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateTaskRequest) (*model.RecoveryTask, error)
	CompleteTask(ctx context.Context, actor model.Actor, taskID uuid.UUID) error
	ListTasks(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.RecoveryTask, error)

	CreateMedication(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateMedicationRequest) (*model.Medication, error)
	RecordDose(ctx context.Context, actor model.Actor, medicationID uuid.UUID, req *model.RecordDoseRequest) (*model.DoseRecord, error)
	DeactivateMedication(ctx context.Context, actor model.Actor, medicationID uuid.UUID) error
}

type Service struct {
	repo        repository.PatientRepository
	tasks       repository.TaskRepository
	meds        repository.MedicationRepository
	assignments repository.AssignmentRepository
	clock       clock.Clock
	logger      zerolog.Logger
}

func NewService(
	repo repository.PatientRepository,
	tasks repository.TaskRepository,
	meds repository.MedicationRepository,
	assignments repository.AssignmentRepository,
	clk clock.Clock,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		tasks:       tasks,
		meds:        meds,
		assignments: assignments,
		clock:       clk,
		logger:      logger.With().Str("service", "patient").Logger(),
	}
}

func (s *Service) CreatePatient(ctx context.Context, patient *model.Patient) error {
	var violations []apperrors.FieldViolation
	if patient.Name == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "name", Message: "is required"})
	}
	if patient.Email == "" {
		violations = append(violations, apperrors.FieldViolation{Field: "email", Message: "is required"})
	}
	if len(violations) > 0 {
		return apperrors.Validation(violations)
	}

	patient.ID = uuid.New()
	patient.Status = string(model.PatientStatusActive)
	if patient.RiskLevel == "" {
		patient.RiskLevel = model.RiskLevelStable
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) CreateTask(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateTaskRequest) (*model.RecoveryTask, error) {
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return nil, err
	}

	priority := model.TaskPriority(req.Priority)
	if req.Priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.Validation([]apperrors.FieldViolation{
			{Field: "priority", Message: "must be low, medium or high"},
		})
	}

	task := &model.RecoveryTask{
		Base: model.Base{
			ID: uuid.New(),
		},
		PatientID:     patientID,
		Title:         req.Title,
		Type:          req.Type,
		Priority:      priority,
		ScheduledTime: req.ScheduledTime,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *Service) CompleteTask(ctx context.Context, actor model.Actor, taskID uuid.UUID) error {
	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, task.PatientID); err != nil {
		return err
	}

	if err := s.tasks.MarkCompleted(ctx, taskID, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	return nil
}

func (s *Service) ListTasks(ctx context.Context, patientID uuid.UUID, window *model.TimeRange) ([]*model.RecoveryTask, error) {
	return s.tasks.ListByPatient(ctx, patientID, window)
}

func (s *Service) CreateMedication(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateMedicationRequest) (*model.Medication, error) {
	if err := s.authorize(ctx, actor, patientID); err != nil {
		return nil, err
	}
	if err := validateMedication(req); err != nil {
		return nil, err
	}

	timings := make([]model.TimingSlot, len(req.Timings))
	for i, t := range req.Timings {
		timings[i] = model.TimingSlot(t)
	}

	relation := model.FoodRelation(req.FoodRelation)
	if req.FoodRelation == "" {
		relation = model.FoodAny
	}

	med := &model.Medication{
		Base: model.Base{
			ID: uuid.New(),
		},
		PatientID:    patientID,
		Name:         req.Name,
		Dosage:       req.Dosage,
		Timings:      timings,
		FoodRelation: relation,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Active:       true,
	}

	if err := s.meds.Create(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	return med, nil
}

// RecordDose appends to the medication's dose log. A slot outside the
// medication's configured timing set is accepted and persisted; scoring
// excludes it from the on-time numerator later.
func (s *Service) RecordDose(ctx context.Context, actor model.Actor, medicationID uuid.UUID, req *model.RecordDoseRequest) (*model.DoseRecord, error) {
	med, err := s.meds.Get(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, med.PatientID); err != nil {
		return nil, err
	}

	slot := model.TimingSlot(req.Slot)
	if !slot.Valid() {
		return nil, apperrors.Validation([]apperrors.FieldViolation{
			{Field: "slot", Message: "must be morning, afternoon or night"},
		})
	}

	dose := &model.DoseRecord{
		ID:           uuid.New(),
		MedicationID: medicationID,
		Date:         req.Date,
		Slot:         slot,
		TakenAt:      s.clock.Now(),
	}

	if err := s.meds.AddDose(ctx, dose); err != nil {
		return nil, fmt.Errorf("failed to record dose: %w", err)
	}
	return dose, nil
}

func (s *Service) DeactivateMedication(ctx context.Context, actor model.Actor, medicationID uuid.UUID) error {
	med, err := s.meds.Get(ctx, medicationID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, med.PatientID); err != nil {
		return err
	}
	return s.meds.Deactivate(ctx, medicationID)
}

// authorize admits admins, the patient themselves, and doctors with an
// active assignment.
func (s *Service) authorize(ctx context.Context, actor model.Actor, patientID uuid.UUID) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if actor.ID == patientID {
			return nil
		}
		return apperrors.Forbidden("patients may only access their own records")
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

func validateMedication(req *model.CreateMedicationRequest) error {
	var violations []apperrors.FieldViolation

	seen := make(map[model.TimingSlot]bool)
	for _, raw := range req.Timings {
		slot := model.TimingSlot(raw)
		if !slot.Valid() {
			violations = append(violations, apperrors.FieldViolation{Field: "timings", Message: fmt.Sprintf("unknown slot %q", raw)})
			continue
		}
		if seen[slot] {
			violations = append(violations, apperrors.FieldViolation{Field: "timings", Message: fmt.Sprintf("duplicate slot %q", raw)})
		}
		seen[slot] = true
	}
	if len(req.Timings) == 0 {
		violations = append(violations, apperrors.FieldViolation{Field: "timings", Message: "at least one slot is required"})
	}
	if req.FoodRelation != "" && !model.FoodRelation(req.FoodRelation).Valid() {
		violations = append(violations, apperrors.FieldViolation{Field: "food_relation", Message: "unknown value"})
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		violations = append(violations, apperrors.FieldViolation{Field: "end_date", Message: "must not precede start_date"})
	}

	if len(violations) > 0 {
		return apperrors.Validation(violations)
	}
	return nil
}
