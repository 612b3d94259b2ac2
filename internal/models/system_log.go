package models

import "time"

// SystemLog is an audit entry for operator-visible events (threshold changes, model activations, resets)
type SystemLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Level       string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module      string    `gorm:"size:100;index" json:"module"`
	Action      string    `gorm:"size:200;index" json:"action"`
	Message     string    `gorm:"type:text" json:"message"`
	ModeratorID *uint     `json:"moderator_id"`
	IP          string    `gorm:"size:50" json:"ip"`
	Extra       string    `gorm:"type:text" json:"extra"` // JSON
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
