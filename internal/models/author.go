package models

import (
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// Author is the account that submitted content
type Author struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Username           string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	ReputationScore    int       `json:"reputation_score"` // 0-100
	AccountAgeDays     int       `json:"account_age_days"`
	PreviousViolations int       `json:"previous_violations"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Author) TableName() string { return "authors" }

// Profile returns the fields the context calculation depends on
func (a Author) Profile() scoring.AuthorProfile {
	return scoring.AuthorProfile{
		ReputationScore:    a.ReputationScore,
		AccountAgeDays:     a.AccountAgeDays,
		PreviousViolations: a.PreviousViolations,
	}
}

// Defaults for authors created on first submission
const (
	DefaultAuthorReputation = 50
)
