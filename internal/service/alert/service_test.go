package alert

import (
	"context"
	"sync"
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

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts map[uuid.UUID]*model.Alert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uuid.UUID]*model.Alert)}
}

func (f *fakeAlertRepo) Create(_ context.Context, a *model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.alerts[a.ID] = &cp
	return nil
}

func (f *fakeAlertRepo) Get(_ context.Context, id uuid.UUID) (*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[id]
	if !ok {
		return nil, apperrors.NotFound("alert", nil)
	}
	cp := *a
	cp.Actions = append([]model.AlertAction(nil), a.Actions...)
	cp.ViewedBy = append([]uuid.UUID(nil), a.ViewedBy...)
	return &cp, nil
}

func (f *fakeAlertRepo) ListByPatient(_ context.Context, patientID uuid.UUID, filters *model.AlertFilters) ([]*model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Alert
	for _, a := range f.alerts {
		if a.PatientID != patientID {
			continue
		}
		if filters != nil && filters.Status != "" && a.Status != filters.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeAlertRepo) AppendAction(_ context.Context, action *model.AlertAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[action.AlertID]
	if !ok {
		return apperrors.NotFound("alert", nil)
	}
	a.Actions = append(a.Actions, *action)
	return nil
}

func (f *fakeAlertRepo) AddViewer(_ context.Context, alertID, actorID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[alertID]
	if !ok {
		return apperrors.NotFound("alert", nil)
	}
	for _, id := range a.ViewedBy {
		if id == actorID {
			return nil
		}
	}
	a.ViewedBy = append(a.ViewedBy, actorID)
	return nil
}

func (f *fakeAlertRepo) UpdateStatus(_ context.Context, alert *model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alerts[alert.ID]
	if !ok {
		return apperrors.NotFound("alert", nil)
	}
	a.Status = alert.Status
	a.ResolvedBy = alert.ResolvedBy
	a.ResolvedAt = alert.ResolvedAt
	return nil
}

func (f *fakeAlertRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.alerts[id]; !ok {
		return apperrors.NotFound("alert", nil)
	}
	delete(f.alerts, id)
	return nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.patients[p.ID] = &cp
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) {
	return nil, nil
}

func (f *fakePatientRepo) UpdateAdherenceRate(_ context.Context, id uuid.UUID, rate int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.patients[id]; ok {
		p.AdherenceRate = rate
	}
	return nil
}

func (f *fakePatientRepo) UpdateRiskLevel(_ context.Context, id uuid.UUID, level model.RiskLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return apperrors.NotFound("patient", nil)
	}
	p.RiskLevel = level
	return nil
}

type fakeAssignments struct {
	assigned map[uuid.UUID]uuid.UUID
}

func (f *fakeAssignments) HasActiveAssignment(_ context.Context, doctorID, patientID uuid.UUID) (bool, error) {
	return f.assigned[doctorID] == patientID, nil
}

type testEnv struct {
	svc       *Service
	alerts    *fakeAlertRepo
	patients  *fakePatientRepo
	clk       *clock.Fixed
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	alerts := newFakeAlertRepo()
	patients := newFakePatientRepo()
	patientID := uuid.New()
	doctorID := uuid.New()
	require.NoError(t, patients.Create(context.Background(), &model.Patient{
		Base:      model.Base{ID: patientID},
		Name:      "Jo Doe",
		RiskLevel: model.RiskLevelStable,
	}))

	clk := clock.NewFixed(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(alerts, patients, &fakeAssignments{assigned: map[uuid.UUID]uuid.UUID{doctorID: patientID}}, nil, clk, nil, zerolog.Nop())
	return &testEnv{svc: svc, alerts: alerts, patients: patients, clk: clk, patientID: patientID, doctorID: doctorID}
}

func (e *testEnv) doctor() model.Actor {
	return model.Actor{ID: e.doctorID, Role: model.RoleDoctor}
}

func (e *testEnv) createAlert(t *testing.T) *model.Alert {
	t.Helper()
	alert, err := e.svc.Create(context.Background(), e.doctor(), e.patientID, &model.CreateAlertRequest{
		Type:     "High Pain Reported",
		Severity: string(model.AlertSeverityWarning),
		Message:  "pain level 9 on latest check-in",
	})
	require.NoError(t, err)
	return alert
}

func TestCreate_StartsActive(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	assert.Equal(t, model.AlertStatusActive, alert.Status)
	assert.Equal(t, model.AlertSourceManual, alert.Origin.Source)
	require.NotNil(t, alert.Origin.Ref)
	assert.Equal(t, e.doctorID, *alert.Origin.Ref)
}

func TestCreate_RejectsUnknownSeverity(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.Create(context.Background(), e.doctor(), e.patientID, &model.CreateAlertRequest{
		Type:     "x",
		Severity: "severe",
		Message:  "m",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestCreate_RequiresAssignment(t *testing.T) {
	e := newTestEnv(t)
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleDoctor}
	_, err := e.svc.Create(context.Background(), stranger, e.patientID, &model.CreateAlertRequest{
		Type:     "x",
		Severity: string(model.AlertSeverityNormal),
		Message:  "m",
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestMarkViewed_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	require.NoError(t, e.svc.MarkViewed(context.Background(), e.doctor(), alert.ID))
	require.NoError(t, e.svc.MarkViewed(context.Background(), e.doctor(), alert.ID))

	got, err := e.svc.Get(context.Background(), e.doctor(), alert.ID)
	require.NoError(t, err)
	assert.Len(t, got.ViewedBy, 1)
	assert.True(t, got.ViewedByActor(e.doctorID))

	// Viewing never changes status.
	assert.Equal(t, model.AlertStatusActive, got.Status)
}

func TestAppendAction_DoesNotChangeStatus(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	err := e.svc.AppendAction(context.Background(), e.doctor(), alert.ID, &model.AppendActionRequest{
		Verb:  "called-patient",
		Notes: "no answer, will retry",
	})
	require.NoError(t, err)

	got, err := e.svc.Get(context.Background(), e.doctor(), alert.ID)
	require.NoError(t, err)
	require.Len(t, got.Actions, 1)
	assert.Equal(t, "called-patient", got.Actions[0].Verb)
	assert.Equal(t, model.AlertStatusActive, got.Status)
}

func TestTransitionStatus_ResolveStampsResolver(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	resolved, err := e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusResolved),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, e.doctorID, *resolved.ResolvedBy)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, e.clk.Now(), *resolved.ResolvedAt)

	// The transition itself lands in the action log.
	got, err := e.svc.Get(context.Background(), e.doctor(), alert.ID)
	require.NoError(t, err)
	require.Len(t, got.Actions, 1)
	assert.Equal(t, "resolved", got.Actions[0].Verb)
}

func TestTransitionStatus_ReResolveLastResolverWins(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	_, err := e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusResolved),
	})
	require.NoError(t, err)

	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	e.clk.Add(time.Hour)
	again, err := e.svc.TransitionStatus(context.Background(), admin, alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusResolved),
	})
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedBy)
	assert.Equal(t, admin.ID, *again.ResolvedBy)
}

func TestTransitionStatus_TerminalStatesRejectCrossTransitions(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	_, err := e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusDismissed),
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusResolved),
	})
	require.Error(t, err)
}

func TestTransitionStatus_DismissDoesNotStampResolver(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	dismissed, err := e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusDismissed),
	})
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusDismissed, dismissed.Status)
	assert.Nil(t, dismissed.ResolvedBy)
	assert.Nil(t, dismissed.ResolvedAt)
}

func TestTransitionStatus_RejectsActiveAsTarget(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	_, err := e.svc.TransitionStatus(context.Background(), e.doctor(), alert.ID, &model.TransitionStatusRequest{
		Status: string(model.AlertStatusActive),
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestDelete_RequiresCareStaff(t *testing.T) {
	e := newTestEnv(t)
	alert := e.createAlert(t)

	patient := model.Actor{ID: e.patientID, Role: model.RolePatient}
	err := e.svc.Delete(context.Background(), patient, alert.ID)
	require.Error(t, err)

	require.NoError(t, e.svc.Delete(context.Background(), e.doctor(), alert.ID))
	_, err = e.svc.Get(context.Background(), e.doctor(), alert.ID)
	require.Error(t, err)
}
