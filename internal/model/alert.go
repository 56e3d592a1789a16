package model

import (
	"time"

	"github.com/google/uuid"
)

type AlertSeverity string

const (
	AlertSeverityNormal   AlertSeverity = "normal"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityNormal, AlertSeverityWarning, AlertSeverityCritical:
		return true
	}
	return false
}

// AlertStatus: active is the initial state; resolved and dismissed are
// terminal. Note the visible product flows currently mark alerts viewed
// instead of dismissing them; the dismissed value remains reachable through
// TransitionStatus for callers that choose it.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusResolved  AlertStatus = "resolved"
	AlertStatusDismissed AlertStatus = "dismissed"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusResolved, AlertStatusDismissed:
		return true
	}
	return false
}

func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusDismissed
}

// AlertSource describes what produced an alert.
type AlertSource string

const (
	AlertSourceCheckIn      AlertSource = "check-in"
	AlertSourceDoctorReview AlertSource = "doctor-review"
	AlertSourceManual       AlertSource = "manual"
)

func (s AlertSource) Valid() bool {
	switch s {
	case AlertSourceCheckIn, AlertSourceDoctorReview, AlertSourceManual:
		return true
	}
	return false
}

// AlertOrigin pairs the source with an optional reference id (check-in id,
// reviewing doctor id).
type AlertOrigin struct {
	Source AlertSource `db:"origin_source" json:"source"`
	Ref    *uuid.UUID  `db:"origin_ref" json:"ref,omitempty"`
}

// AlertAction is one append-only audit entry on an alert.
type AlertAction struct {
	ID      uuid.UUID `db:"id" json:"id"`
	AlertID uuid.UUID `db:"alert_id" json:"alert_id"`
	ActorID uuid.UUID `db:"actor_id" json:"actor_id"`
	Verb    string    `db:"verb" json:"verb"`
	Notes   string    `db:"notes" json:"notes,omitempty"`
	At      time.Time `db:"at" json:"at"`
}

// Alert is a triage-feed entry for care staff. The action log is
// append-only and the viewer set is an idempotent add-only set; resolution
// metadata is stamped only on transition to resolved, last resolver wins.
type Alert struct {
	Base
	PatientID  uuid.UUID     `db:"patient_id" json:"patient_id"`
	Type       string        `db:"type" json:"type"`
	Severity   AlertSeverity `db:"severity" json:"severity"`
	Message    string        `db:"message" json:"message"`
	Status     AlertStatus   `db:"status" json:"status"`
	Origin     AlertOrigin   `db:"-" json:"origin"`
	Actions    []AlertAction `db:"-" json:"actions,omitempty"`
	ViewedBy   []uuid.UUID   `db:"-" json:"viewed_by,omitempty"`
	ResolvedBy *uuid.UUID    `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ViewedByActor reports whether actorID is already in the viewer set.
func (a *Alert) ViewedByActor(actorID uuid.UUID) bool {
	for _, id := range a.ViewedBy {
		if id == actorID {
			return true
		}
	}
	return false
}

const (
	AlertTypeCheckInCompleted = "Check-in Completed"
	AlertTypeRiskLevelChanged = "Risk Level Changed"
)

type CreateAlertRequest struct {
	Type     string `json:"type" binding:"required"`
	Severity string `json:"severity" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

type AppendActionRequest struct {
	Verb  string `json:"verb" binding:"required"`
	Notes string `json:"notes"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type AlertFilters struct {
	Status   AlertStatus   `form:"status"`
	Severity AlertSeverity `form:"severity"`
}
