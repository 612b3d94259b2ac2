package models

import "time"

// SchedulerLock lets only one server instance run a periodic job at a time
type SchedulerLock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JobName   string    `gorm:"uniqueIndex;size:100;not null" json:"job_name"`
	Holder    string    `gorm:"size:100" json:"holder"`
	LockedAt  time.Time `json:"locked_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

func (SchedulerLock) TableName() string { return "scheduler_locks" }
