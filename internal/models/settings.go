package models

import (
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// SystemSettings is the singleton row of runtime-tunable moderation settings
type SystemSettings struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	AllowThreshold        float64    `json:"allow_threshold"`
	ReviewThreshold       float64    `json:"review_threshold"`
	BlockThreshold        float64    `json:"block_threshold"`
	RetrainThreshold      int        `json:"retrain_threshold"`
	NewGoldSinceLastTrain int        `json:"new_gold_since_last_train"`
	LastRetrainDate       *time.Time `json:"last_retrain_date"`
	RetrainingEnabled     bool       `json:"retraining_enabled"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (SystemSettings) TableName() string { return "system_settings" }

// DefaultRetrainThreshold is the number of new gold labels that triggers a retrain
const DefaultRetrainThreshold = 10

// DefaultSystemSettings returns the row created on first access
func DefaultSystemSettings() SystemSettings {
	t := scoring.DefaultThresholds()
	return SystemSettings{
		AllowThreshold:    t.Allow,
		ReviewThreshold:   t.Review,
		BlockThreshold:    t.Block,
		RetrainThreshold:  DefaultRetrainThreshold,
		RetrainingEnabled: true,
	}
}

// Thresholds returns the decision thresholds
func (s SystemSettings) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{Allow: s.AllowThreshold, Review: s.ReviewThreshold, Block: s.BlockThreshold}
}

// ShouldRetrain is true only when retraining is enabled and enough new labels arrived
func (s SystemSettings) ShouldRetrain() bool {
	return s.RetrainingEnabled && s.NewGoldSinceLastTrain >= s.RetrainThreshold
}
