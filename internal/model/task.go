package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// RecoveryTask is a scheduled recovery activity (exercise, wound care,
// follow-up visit). It never auto-expires; incomplete tasks past their
// scheduled time are reported as overdue.
type RecoveryTask struct {
	Base
	PatientID     uuid.UUID    `db:"patient_id" json:"patient_id"`
	Title         string       `db:"title" json:"title"`
	Type          string       `db:"type" json:"type"`
	Priority      TaskPriority `db:"priority" json:"priority"`
	ScheduledTime time.Time    `db:"scheduled_time" json:"scheduled_time"`
	Completed     bool         `db:"completed" json:"completed"`
	CompletedAt   *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
}

type CreateTaskRequest struct {
	Title         string    `json:"title" binding:"required"`
	Type          string    `json:"type" binding:"required"`
	Priority      string    `json:"priority"`
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
}
