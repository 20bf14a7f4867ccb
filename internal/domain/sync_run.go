package domain

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus represents the current status of a sync run
type SyncStatus string

const (
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncTrigger records what started a sync run
type SyncTrigger string

const (
	TriggerManual    SyncTrigger = "manual"
	TriggerScheduled SyncTrigger = "scheduled"
)

// SyncRun records one execution of the update pipeline
type SyncRun struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	Trigger      SyncTrigger `json:"trigger" gorm:"not null"`
	Status       SyncStatus  `json:"status" gorm:"not null;index"`
	AddedStable  int         `json:"added_stable"`
	AddedBeta    int         `json:"added_beta"`
	Removed      int         `json:"removed"`
	StatsApps    int         `json:"stats_apps"`
	ErrorMessage string      `json:"error_message,omitempty"`
	StartedAt    time.Time   `json:"started_at" gorm:"index"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
}

// TableName specifies the table name for GORM
func (SyncRun) TableName() string {
	return "sync_runs"
}

// NewSyncRun creates a running sync run
func NewSyncRun(trigger SyncTrigger) *SyncRun {
	return &SyncRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Status:    SyncRunning,
		StartedAt: time.Now(),
	}
}

// MarkCompleted marks the run as completed
func (r *SyncRun) MarkCompleted() {
	r.Status = SyncCompleted
	now := time.Now()
	r.FinishedAt = &now
}

// MarkFailed marks the run as failed
func (r *SyncRun) MarkFailed(err error) {
	r.Status = SyncFailed
	r.ErrorMessage = err.Error()
	now := time.Now()
	r.FinishedAt = &now
}

// IsTerminal checks if the run has finished
func (r *SyncRun) IsTerminal() bool {
	return r.Status == SyncCompleted || r.Status == SyncFailed
}
