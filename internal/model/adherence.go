package model

// TaskAdherence is the completion-ratio score over scheduled tasks.
// OnTimeTasks and OverdueTasks are informational only and do not feed the
// rate; the rate is completed/total regardless of timeliness. That split is
// part of the published contract.
type TaskAdherence struct {
	AdherenceRate  int `json:"adherenceRate"`
	TotalTasks     int `json:"totalTasks"`
	CompletedTasks int `json:"completedTasks"`
	OnTimeTasks    int `json:"onTimeTasks"`
	OverdueTasks   int `json:"overdueTasks"`
}

// MedicationAdherence is the expected-vs-taken dose score. TakenDoses counts
// every dose logged in range; OnTimeDoses counts only doses whose slot is in
// the medication's configured timing set, and only those feed the rate.
// MissedDoses derives from expected and raw taken, not from on-time.
type MedicationAdherence struct {
	AdherenceRate      int `json:"adherenceRate"`
	TotalExpectedDoses int `json:"totalExpectedDoses"`
	TotalTakenDoses    int `json:"totalTakenDoses"`
	OnTimeDoses        int `json:"onTimeDoses"`
	MissedDoses        int `json:"missedDoses"`
}

// AdherenceReport is the combined result exposed to callers.
type AdherenceReport struct {
	OverallAdherence    int                 `json:"overallAdherence"`
	TaskAdherence       int                 `json:"taskAdherence"`
	MedicationAdherence int                 `json:"medicationAdherence"`
	TaskDetails         TaskAdherence       `json:"taskDetails"`
	MedicationDetails   MedicationAdherence `json:"medicationDetails"`
}
