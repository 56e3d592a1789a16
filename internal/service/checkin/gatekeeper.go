package checkin

import (
	"math"
	"time"

	"github.com/jwalitptl/recovery-api/internal/model"
)

// Minimum gap between two submissions. Runs independently of the
// calendar-day check: 11pm then 2am crosses midnight but still trips the
// cooldown, and an 8h gap inside one calendar day still trips the day rule.
const submissionCooldown = 8 * time.Hour

// EvaluateAdmission applies the gate to a new submission given the
// patient's most recent prior check-in (nil when none exists, which always
// admits). Day comparison uses now's calendar, not a rolling 24h.
func EvaluateAdmission(prior *model.SymptomCheckIn, now time.Time) model.AdmissionVerdict {
	if prior == nil {
		return model.AdmissionVerdict{Allowed: true}
	}

	if sameCalendarDay(prior.SubmittedAt, now) {
		return model.AdmissionVerdict{Allowed: false, Reason: model.RejectDuplicateToday}
	}

	if elapsed := now.Sub(prior.SubmittedAt); elapsed < submissionCooldown {
		remaining := submissionCooldown - elapsed
		return model.AdmissionVerdict{
			Allowed:        false,
			Reason:         model.RejectCooldown,
			HoursRemaining: int(math.Ceil(remaining.Hours())),
		}
	}

	return model.AdmissionVerdict{Allowed: true}
}

func sameCalendarDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
