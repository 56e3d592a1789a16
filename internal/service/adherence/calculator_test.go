package adherence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/recovery-api/internal/model"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func taskAt(scheduled time.Time, completed bool, completedAt *time.Time) *model.RecoveryTask {
	return &model.RecoveryTask{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     uuid.New(),
		Title:         "walk 10 minutes",
		ScheduledTime: scheduled,
		Completed:     completed,
		CompletedAt:   completedAt,
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestResolveWindow(t *testing.T) {
	requested := model.TimeRange{
		Start: testNow.AddDate(0, 0, -30),
		End:   testNow,
	}

	t.Run("activity window inside requested", func(t *testing.T) {
		start := testNow.AddDate(0, 0, -10)
		end := testNow.AddDate(0, 0, -2)
		eff, ok := ResolveWindow(requested, start, &end)
		assert.True(t, ok)
		assert.Equal(t, start, eff.Start)
		assert.Equal(t, end, eff.End)
	})

	t.Run("open-ended activity clamps to requested end", func(t *testing.T) {
		start := testNow.AddDate(0, 0, -10)
		eff, ok := ResolveWindow(requested, start, nil)
		assert.True(t, ok)
		assert.Equal(t, start, eff.Start)
		assert.Equal(t, requested.End, eff.End)
	})

	t.Run("activity starting before requested keeps requested start", func(t *testing.T) {
		start := testNow.AddDate(0, 0, -90)
		eff, ok := ResolveWindow(requested, start, nil)
		assert.True(t, ok)
		assert.Equal(t, requested.Start, eff.Start)
	})

	t.Run("activity entirely before window contributes nothing", func(t *testing.T) {
		start := testNow.AddDate(0, 0, -90)
		end := testNow.AddDate(0, 0, -60)
		_, ok := ResolveWindow(requested, start, &end)
		assert.False(t, ok)
	})

	t.Run("activity starting after window end contributes nothing", func(t *testing.T) {
		start := testNow.AddDate(0, 0, 5)
		_, ok := ResolveWindow(requested, start, nil)
		assert.False(t, ok)
	})
}

func TestTaskScore_NoTasksMeansFullCompliance(t *testing.T) {
	score := TaskScore(nil, testNow)
	assert.Equal(t, 100, score.AdherenceRate)
	assert.Equal(t, 0, score.TotalTasks)
}

func TestTaskScore_RateIgnoresTimeliness(t *testing.T) {
	// 5 scheduled, 4 completed: 80 regardless of on-time or overdue counts.
	scheduled := testNow.AddDate(0, 0, -5)
	tasks := []*model.RecoveryTask{
		taskAt(scheduled, true, ptr(scheduled.Add(2*time.Hour))),   // on time
		taskAt(scheduled, true, ptr(scheduled.Add(48*time.Hour))),  // late
		taskAt(scheduled, true, ptr(scheduled.Add(23*time.Hour))),  // on time
		taskAt(scheduled, true, ptr(scheduled.Add(100*time.Hour))), // late
		taskAt(scheduled, false, nil),                              // overdue
	}

	score := TaskScore(tasks, testNow)
	assert.Equal(t, 80, score.AdherenceRate)
	assert.Equal(t, 5, score.TotalTasks)
	assert.Equal(t, 4, score.CompletedTasks)
	assert.Equal(t, 2, score.OnTimeTasks)
	assert.Equal(t, 1, score.OverdueTasks)
}

func TestTaskScore_GraceWindowBoundary(t *testing.T) {
	scheduled := testNow.AddDate(0, 0, -3)

	exactlyOnBoundary := taskAt(scheduled, true, ptr(scheduled.Add(24*time.Hour)))
	justPast := taskAt(scheduled, true, ptr(scheduled.Add(24*time.Hour+time.Second)))

	score := TaskScore([]*model.RecoveryTask{exactlyOnBoundary, justPast}, testNow)
	assert.Equal(t, 1, score.OnTimeTasks)
	assert.Equal(t, 100, score.AdherenceRate)
}

func TestTaskScore_FutureIncompleteNotOverdue(t *testing.T) {
	tasks := []*model.RecoveryTask{
		taskAt(testNow.Add(12*time.Hour), false, nil),
		taskAt(testNow.Add(-12*time.Hour), false, nil),
	}
	score := TaskScore(tasks, testNow)
	assert.Equal(t, 1, score.OverdueTasks)
	assert.Equal(t, 0, score.AdherenceRate)
}

func TestTaskScore_RoundsHalfUp(t *testing.T) {
	// 1 of 8 completed: 12.5 rounds to 13.
	scheduled := testNow.AddDate(0, 0, -1)
	tasks := []*model.RecoveryTask{taskAt(scheduled, true, ptr(scheduled))}
	for i := 0; i < 7; i++ {
		tasks = append(tasks, taskAt(scheduled, false, nil))
	}
	score := TaskScore(tasks, testNow)
	assert.Equal(t, 13, score.AdherenceRate)
}

func medication(startDaysAgo int, timings []model.TimingSlot) *model.Medication {
	return &model.Medication{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		Name:      "amoxicillin",
		Timings:   timings,
		StartDate: testNow.AddDate(0, 0, -startDaysAgo),
		Active:    true,
	}
}

func dose(med *model.Medication, daysAgo int, slot model.TimingSlot) model.DoseRecord {
	d := testNow.AddDate(0, 0, -daysAgo)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return model.DoseRecord{
		ID:           uuid.New(),
		MedicationID: med.ID,
		Date:         day,
		Slot:         slot,
		TakenAt:      d,
	}
}

func defaultWindow() model.TimeRange {
	return model.TimeRange{Start: testNow.AddDate(0, 0, -30), End: testNow}
}

func TestMedicationScore_NoActiveMedications(t *testing.T) {
	score := MedicationScore(nil, defaultWindow())
	assert.Equal(t, 100, score.AdherenceRate)
	assert.Equal(t, 0, score.TotalExpectedDoses)
}

func TestMedicationScore_ExpectedFromWindowAndTimings(t *testing.T) {
	// 2 timings/day, active continuously for 10 days up to now, 15 valid
	// doses: expected 20, rate 75.
	med := medication(10, []model.TimingSlot{model.TimingMorning, model.TimingNight})
	for i := 0; i < 8; i++ {
		med.Doses = append(med.Doses, dose(med, i, model.TimingMorning))
	}
	for i := 0; i < 7; i++ {
		med.Doses = append(med.Doses, dose(med, i, model.TimingNight))
	}

	score := MedicationScore([]*model.Medication{med}, defaultWindow())
	assert.Equal(t, 20, score.TotalExpectedDoses)
	assert.Equal(t, 15, score.TotalTakenDoses)
	assert.Equal(t, 15, score.OnTimeDoses)
	assert.Equal(t, 5, score.MissedDoses)
	assert.Equal(t, 75, score.AdherenceRate)
}

func TestMedicationScore_OffScheduleDosesCountedButNotScored(t *testing.T) {
	// Morning-only medication with an afternoon dose logged: the dose is
	// taken but never on time, and missed still derives from raw taken.
	med := medication(5, []model.TimingSlot{model.TimingMorning})
	med.Doses = append(med.Doses,
		dose(med, 1, model.TimingMorning),
		dose(med, 2, model.TimingAfternoon),
	)

	score := MedicationScore([]*model.Medication{med}, defaultWindow())
	assert.Equal(t, 5, score.TotalExpectedDoses)
	assert.Equal(t, 2, score.TotalTakenDoses)
	assert.Equal(t, 1, score.OnTimeDoses)
	assert.Equal(t, 3, score.MissedDoses)
	assert.Equal(t, 20, score.AdherenceRate)
}

func TestMedicationScore_DosesOutsideWindowExcluded(t *testing.T) {
	med := medication(10, []model.TimingSlot{model.TimingMorning})
	end := testNow.AddDate(0, 0, -2)
	med.EndDate = &end
	med.Doses = append(med.Doses,
		dose(med, 3, model.TimingMorning), // inside effective window
		dose(med, 1, model.TimingMorning), // after medication ended
	)

	score := MedicationScore([]*model.Medication{med}, defaultWindow())
	assert.Equal(t, 8, score.TotalExpectedDoses)
	assert.Equal(t, 1, score.TotalTakenDoses)
}

func TestMedicationScore_EndedBeforeWindowContributesZero(t *testing.T) {
	med := medication(90, []model.TimingSlot{model.TimingMorning, model.TimingAfternoon, model.TimingNight})
	end := testNow.AddDate(0, 0, -60)
	med.EndDate = &end

	score := MedicationScore([]*model.Medication{med}, defaultWindow())
	assert.Equal(t, 0, score.TotalExpectedDoses)
	assert.Equal(t, 100, score.AdherenceRate)
}

func TestCombine(t *testing.T) {
	cases := []struct {
		task, med, want int
	}{
		{100, 100, 100},
		{0, 0, 0},
		{83, 84, 84}, // 83.5 rounds half-up
		{80, 75, 78}, // 77.5 rounds half-up
		{100, 0, 50},
		{67, 68, 68},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Combine(c.task, c.med), "Combine(%d, %d)", c.task, c.med)
	}
}
