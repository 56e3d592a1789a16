package adherence

import (
	"math"
	"time"

	"github.com/jwalitptl/recovery-api/internal/model"
)

const (
	// Completing a task within 24h of its scheduled time still counts as
	// on time, regardless of task type.
	taskGracePeriod = 24 * time.Hour

	// Reporting window when the caller omits one.
	defaultWindowDays = 30

	taskWeight       = 0.5
	medicationWeight = 0.5
)

// roundHalfUp rounds to the nearest integer with .5 going up.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// DefaultWindow is the last 30 days up to now.
func DefaultWindow(now time.Time) model.TimeRange {
	return model.TimeRange{
		Start: now.AddDate(0, 0, -defaultWindowDays),
		End:   now,
	}
}

// ResolveWindow intersects the requested window with an activity's own
// validity window. ok is false when the intersection is empty, which means
// the activity contributes zero expected occurrences; that is a normal
// outcome, not an error.
func ResolveWindow(requested model.TimeRange, activityStart time.Time, activityEnd *time.Time) (model.TimeRange, bool) {
	effective := requested
	if activityStart.After(effective.Start) {
		effective.Start = activityStart
	}
	if activityEnd != nil && activityEnd.Before(effective.End) {
		effective.End = *activityEnd
	}
	if effective.End.Before(effective.Start) {
		return model.TimeRange{}, false
	}
	return effective, true
}

// TaskScore computes the completion-ratio score over the given tasks.
// Zero tasks means full compliance: absence of obligations scores 100.
// OnTime and Overdue are reported for display but never feed the rate.
func TaskScore(tasks []*model.RecoveryTask, now time.Time) model.TaskAdherence {
	score := model.TaskAdherence{TotalTasks: len(tasks)}
	if score.TotalTasks == 0 {
		score.AdherenceRate = 100
		return score
	}

	for _, t := range tasks {
		if t.Completed {
			score.CompletedTasks++
			if t.CompletedAt != nil && !t.CompletedAt.After(t.ScheduledTime.Add(taskGracePeriod)) {
				score.OnTimeTasks++
			}
		} else if t.ScheduledTime.Before(now) {
			score.OverdueTasks++
		}
	}

	score.AdherenceRate = roundHalfUp(float64(score.CompletedTasks) / float64(score.TotalTasks) * 100)
	return score
}

// MedicationScore computes the expected-vs-taken dose score over active
// medications. Expected doses come from each medication's effective window
// times its daily timing count. Doses logged with a slot outside the
// medication's configured set stay in TotalTakenDoses but are excluded from
// OnTimeDoses, and only on-time doses feed the rate. MissedDoses derives
// from expected and raw taken, so it deliberately separates "doses logged"
// from "doses that count".
func MedicationScore(meds []*model.Medication, window model.TimeRange) model.MedicationAdherence {
	score := model.MedicationAdherence{}
	if len(meds) == 0 {
		score.AdherenceRate = 100
		return score
	}

	for _, med := range meds {
		effective, ok := ResolveWindow(window, med.StartDate, med.EndDate)
		if !ok {
			continue
		}

		days := int(math.Ceil(effective.End.Sub(effective.Start).Hours() / 24))
		score.TotalExpectedDoses += days * len(med.Timings)

		for _, dose := range med.Doses {
			if !doseInRange(dose.Date, effective) {
				continue
			}
			score.TotalTakenDoses++
			if med.HasTiming(dose.Slot) {
				score.OnTimeDoses++
			}
		}
	}

	score.MissedDoses = score.TotalExpectedDoses - score.TotalTakenDoses
	if score.TotalExpectedDoses > 0 {
		score.AdherenceRate = roundHalfUp(float64(score.OnTimeDoses) / float64(score.TotalExpectedDoses) * 100)
	} else {
		score.AdherenceRate = 100
	}
	return score
}

// Combine applies the fixed 50/50 weighting of task and medication rates.
func Combine(taskRate, medicationRate int) int {
	return roundHalfUp(taskWeight*float64(taskRate) + medicationWeight*float64(medicationRate))
}

// doseInRange compares by calendar day so a dose logged at midnight still
// counts on the window's boundary days.
func doseInRange(doseDate time.Time, window model.TimeRange) bool {
	return !doseDate.Before(dayStart(window.Start)) && !dayStart(doseDate).After(window.End)
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
