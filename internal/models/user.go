package models

import (
	"time"

	"gorm.io/gorm"
)

// Moderator roles
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// Moderator is an account allowed to review content and tune settings
type Moderator struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Role      string         `gorm:"size:50;not null" json:"role"`
	IsActive  bool           `json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Moderator) TableName() string { return "moderators" }
