package models

import "time"

// Review is a moderator's feedback on a content item. GoldLabel stays nil until a moderator acts.
type Review struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	ContentID       uint       `gorm:"index;not null" json:"content_id"`
	Content         *Content   `gorm:"foreignKey:ContentID" json:"content,omitempty"`
	ModeratorID     *uint      `gorm:"index" json:"moderator_id"`
	GoldLabel       *string    `gorm:"size:20" json:"gold_label"`
	CorrectDecision *bool      `json:"correct_decision"`
	Feedback        string     `gorm:"type:text" json:"feedback"`
	CountedAt       *time.Time `json:"counted_at"` // set when the gold label was added to the retrain counter
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedAt      *time.Time `gorm:"index" json:"reviewed_at"`
}

func (Review) TableName() string { return "reviews" }
