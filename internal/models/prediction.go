package models

import (
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// Prediction is the immutable result of one scoring pass
type Prediction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ContentID      uint      `gorm:"index;not null" json:"content_id"`
	SpamScore      float64   `json:"spam_score"`
	ToxicScore     float64   `json:"toxic_score"`
	HateScore      float64   `json:"hate_score"`
	OffensiveScore float64   `json:"offensive_score"`
	FinalScore     float64   `json:"final_score"`
	Decision       string    `gorm:"size:20;index;not null" json:"decision"`
	Confidence     string    `gorm:"size:20" json:"confidence"`
	ModelVersion   int       `json:"model_version"` // 0 when no classifier was used
	ContextFactors string    `gorm:"type:text" json:"context_factors"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (Prediction) TableName() string { return "predictions" }

// Scores returns the category scores of the prediction
func (p Prediction) Scores() scoring.CategoryScores {
	return scoring.CategoryScores{
		Spam:      p.SpamScore,
		Toxic:     p.ToxicScore,
		Hate:      p.HateScore,
		Offensive: p.OffensiveScore,
	}
}
