package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recovery-api/internal/model"
	"github.com/jwalitptl/recovery-api/pkg/clock"
	apperrors "github.com/jwalitptl/recovery-api/pkg/errors"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) { return nil, nil }
func (f *fakePatientRepo) UpdateAdherenceRate(_ context.Context, _ uuid.UUID, _ int) error {
	return nil
}
func (f *fakePatientRepo) UpdateRiskLevel(_ context.Context, _ uuid.UUID, _ model.RiskLevel) error {
	return nil
}

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*model.RecoveryTask
}

func (f *fakeTaskRepo) Create(_ context.Context, t *model.RecoveryTask) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeTaskRepo) Get(_ context.Context, id uuid.UUID) (*model.RecoveryTask, error) {
	t, ok := f.tasks[id]
	if !ok {
		return nil, apperrors.NotFound("task", nil)
	}
	return t, nil
}

func (f *fakeTaskRepo) ListByPatient(_ context.Context, _ uuid.UUID, _ *model.TimeRange) ([]*model.RecoveryTask, error) {
	return nil, nil
}

func (f *fakeTaskRepo) MarkCompleted(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	t, ok := f.tasks[id]
	if !ok {
		return apperrors.NotFound("task", nil)
	}
	t.Completed = true
	t.CompletedAt = &completedAt
	return nil
}

type fakeMedicationRepo struct {
	meds  map[uuid.UUID]*model.Medication
	doses []*model.DoseRecord
}

func (f *fakeMedicationRepo) Create(_ context.Context, m *model.Medication) error {
	f.meds[m.ID] = m
	return nil
}

func (f *fakeMedicationRepo) Get(_ context.Context, id uuid.UUID) (*model.Medication, error) {
	m, ok := f.meds[id]
	if !ok {
		return nil, apperrors.NotFound("medication", nil)
	}
	return m, nil
}

func (f *fakeMedicationRepo) ListActiveByPatient(_ context.Context, _ uuid.UUID) ([]*model.Medication, error) {
	return nil, nil
}

func (f *fakeMedicationRepo) AddDose(_ context.Context, d *model.DoseRecord) error {
	f.doses = append(f.doses, d)
	return nil
}

func (f *fakeMedicationRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	m, ok := f.meds[id]
	if !ok {
		return apperrors.NotFound("medication", nil)
	}
	m.Active = false
	return nil
}

type fakeAssignments struct{}

func (fakeAssignments) HasActiveAssignment(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return true, nil
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *fakeMedicationRepo, *fakeTaskRepo) {
	meds := &fakeMedicationRepo{meds: make(map[uuid.UUID]*model.Medication)}
	tasks := &fakeTaskRepo{tasks: make(map[uuid.UUID]*model.RecoveryTask)}
	patients := &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	svc := NewService(patients, tasks, meds, fakeAssignments{}, clock.NewFixed(testNow), zerolog.Nop())
	return svc, meds, tasks
}

func doctor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleDoctor}
}

func TestCreateMedication_RejectsBadTimingsAggregated(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateMedication(context.Background(), doctor(), uuid.New(), &model.CreateMedicationRequest{
		Name:      "ibuprofen",
		Timings:   []string{"morning", "morning", "dawn"},
		StartDate: testNow,
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	// unknown slot and duplicate slot reported together
	assert.Len(t, appErr.Fields, 2)
}

func TestCreateMedication_EndBeforeStartRejected(t *testing.T) {
	svc, _, _ := newTestService()

	end := testNow.AddDate(0, 0, -1)
	_, err := svc.CreateMedication(context.Background(), doctor(), uuid.New(), &model.CreateMedicationRequest{
		Name:      "ibuprofen",
		Timings:   []string{"morning"},
		StartDate: testNow,
		EndDate:   &end,
	})
	require.Error(t, err)
}

func TestCreateMedication_DefaultsApplied(t *testing.T) {
	svc, meds, _ := newTestService()

	med, err := svc.CreateMedication(context.Background(), doctor(), uuid.New(), &model.CreateMedicationRequest{
		Name:      "ibuprofen",
		Timings:   []string{"morning", "night"},
		StartDate: testNow,
	})
	require.NoError(t, err)
	assert.True(t, med.Active)
	assert.Equal(t, model.FoodAny, med.FoodRelation)
	assert.Len(t, meds.meds, 1)
}

func TestRecordDose_OffScheduleSlotAccepted(t *testing.T) {
	// Dose slots outside the configured set persist; scoring excludes them
	// later rather than rejecting here.
	svc, meds, _ := newTestService()
	actor := doctor()

	med, err := svc.CreateMedication(context.Background(), actor, uuid.New(), &model.CreateMedicationRequest{
		Name:      "ibuprofen",
		Timings:   []string{"morning"},
		StartDate: testNow,
	})
	require.NoError(t, err)

	d, err := svc.RecordDose(context.Background(), actor, med.ID, &model.RecordDoseRequest{
		Date: testNow,
		Slot: "night",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TimingNight, d.Slot)
	assert.Len(t, meds.doses, 1)
}

func TestRecordDose_UnknownSlotRejected(t *testing.T) {
	svc, _, _ := newTestService()
	actor := doctor()

	med, err := svc.CreateMedication(context.Background(), actor, uuid.New(), &model.CreateMedicationRequest{
		Name:      "ibuprofen",
		Timings:   []string{"morning"},
		StartDate: testNow,
	})
	require.NoError(t, err)

	_, err = svc.RecordDose(context.Background(), actor, med.ID, &model.RecordDoseRequest{
		Date: testNow,
		Slot: "dawn",
	})
	require.Error(t, err)
}

func TestCompleteTask_StampsClockTime(t *testing.T) {
	svc, _, tasks := newTestService()
	actor := doctor()

	task, err := svc.CreateTask(context.Background(), actor, uuid.New(), &model.CreateTaskRequest{
		Title:         "change dressing",
		Type:          "wound-care",
		ScheduledTime: testNow.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, svc.CompleteTask(context.Background(), actor, task.ID))
	stored := tasks.tasks[task.ID]
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, testNow, *stored.CompletedAt)
}
