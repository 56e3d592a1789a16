package model

import (
	"time"
)

type PatientStatus string

const (
	PatientStatusActive     PatientStatus = "active"
	PatientStatusDischarged PatientStatus = "discharged"
)

// RiskLevel is the clinician-assigned triage category.
type RiskLevel string

const (
	RiskLevelStable   RiskLevel = "stable"
	RiskLevelMonitor  RiskLevel = "monitor"
	RiskLevelCritical RiskLevel = "critical"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLevelStable, RiskLevelMonitor, RiskLevelCritical:
		return true
	}
	return false
}

// Patient is the post-procedure patient record. AdherenceRate and RiskLevel
// are write-back caches of the latest computed/assigned values, not sources
// of truth; the alert stream holds the full risk history.
type Patient struct {
	Base
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	Status        string     `db:"status" json:"status"`
	ProcedureDate *time.Time `db:"procedure_date" json:"procedure_date,omitempty"`
	AdherenceRate int        `db:"adherence_rate" json:"adherence_rate"`
	RiskLevel     RiskLevel  `db:"risk_level" json:"risk_level"`
}

type UpdateRiskLevelRequest struct {
	RiskLevel string `json:"risk_level" binding:"required"`
	Notes     string `json:"notes"`
}
