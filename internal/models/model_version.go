package models

import (
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// ModelVersion is a trained classifier. At most one version is active.
type ModelVersion struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Version             int       `gorm:"uniqueIndex;not null" json:"version"`
	Accuracy            float64   `json:"accuracy"`
	Precision           float64   `json:"precision"`
	Recall              float64   `json:"recall"`
	F1Score             float64   `json:"f1_score"`
	IsActive            bool      `gorm:"index" json:"is_active"`
	ModelPath           string    `gorm:"size:500" json:"model_path"`
	TrainingSampleCount int       `json:"training_sample_count"`
	TrainedAt           time.Time `json:"trained_at"`
	CreatedAt           time.Time `json:"created_at"`
}

func (ModelVersion) TableName() string { return "model_versions" }

// Metrics returns the stored evaluation metrics
func (m ModelVersion) Metrics() scoring.Metrics {
	return scoring.Metrics{Accuracy: m.Accuracy, Precision: m.Precision, Recall: m.Recall, F1: m.F1Score}
}
