package models

import (
	"time"

	"github.com/huangang/modsentry/backend/internal/scoring"
)

// Content types
const (
	ContentTypeComment = "comment"
	ContentTypePost    = "post"
	ContentTypeMessage = "message"
)

// Content statuses. Queued -> Processing -> Approved | PendingReview | Blocked.
const (
	ContentStatusQueued        = "queued"
	ContentStatusProcessing    = "processing"
	ContentStatusApproved      = "approved"
	ContentStatusPendingReview = "pending_review"
	ContentStatusBlocked       = "blocked"
)

// ValidContentType reports whether t is a known content type
func ValidContentType(t string) bool {
	switch t {
	case ContentTypeComment, ContentTypePost, ContentTypeMessage:
		return true
	}
	return false
}

// StatusForDecision maps a decision to the content status it leads to
func StatusForDecision(d scoring.Decision) string {
	switch d {
	case scoring.DecisionAllow:
		return ContentStatusApproved
	case scoring.DecisionBlock:
		return ContentStatusBlocked
	default:
		return ContentStatusPendingReview
	}
}

// Content is a user submission waiting for or past moderation
type Content struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	Type                string        `gorm:"size:20;not null" json:"type"`
	Text                string        `gorm:"type:text" json:"text"`
	AuthorID            uint          `gorm:"index;not null" json:"author_id"`
	Author              *Author       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ThreadID            *string       `gorm:"size:100;index" json:"thread_id"`
	Status              string        `gorm:"size:20;index;not null" json:"status"`
	ProcessingStartedAt *time.Time    `json:"processing_started_at"`
	ProcessedAt         *time.Time    `json:"processed_at"`
	Image               *ContentImage `gorm:"foreignKey:ContentID" json:"image,omitempty"`
	CreatedAt           time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (Content) TableName() string { return "contents" }

// ContentImage holds the classification of an image attached to a post
type ContentImage struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ContentID    uint       `gorm:"uniqueIndex;not null" json:"content_id"`
	FileName     string     `gorm:"size:255" json:"file_name"`
	MimeType     string     `gorm:"size:100" json:"mime_type"`
	FileSize     int64      `json:"file_size"`
	Label        string     `gorm:"size:200" json:"label"`
	Confidence   float64    `json:"confidence"`
	ClassifiedAt *time.Time `json:"classified_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (ContentImage) TableName() string { return "content_images" }

// Classification returns the image label, nil when the image was never classified
func (i *ContentImage) Classification() *scoring.ImageLabel {
	if i == nil || i.ClassifiedAt == nil || i.Label == "" {
		return nil
	}
	return &scoring.ImageLabel{Label: i.Label, Confidence: i.Confidence}
}

// ContentContext is the cached context snapshot of a content item
type ContentContext struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ContentID        uint      `gorm:"uniqueIndex;not null" json:"content_id"`
	AuthorReputation float64   `json:"author_reputation"`
	ThreadSentiment  float64   `json:"thread_sentiment"`
	EngagementLevel  float64   `json:"engagement_level"`
	TimeOfDay        int       `json:"time_of_day"`
	DayOfWeek        int       `json:"day_of_week"`
	Language         string    `gorm:"size:10" json:"language"`
	ContentLength    int       `json:"content_length"`
	CreatedAt        time.Time `json:"created_at"`
}

func (ContentContext) TableName() string { return "content_contexts" }

// Snapshot converts the row to the scoring value
func (c ContentContext) Snapshot() scoring.ContentContext {
	return scoring.ContentContext{
		AuthorReputation: c.AuthorReputation,
		ThreadSentiment:  c.ThreadSentiment,
		EngagementLevel:  c.EngagementLevel,
		TimeOfDay:        c.TimeOfDay,
		DayOfWeek:        c.DayOfWeek,
		Language:         c.Language,
		ContentLength:    c.ContentLength,
	}
}

// NewContentContext builds the row for contentID from a scoring snapshot
func NewContentContext(contentID uint, s scoring.ContentContext) ContentContext {
	return ContentContext{
		ContentID:        contentID,
		AuthorReputation: s.AuthorReputation,
		ThreadSentiment:  s.ThreadSentiment,
		EngagementLevel:  s.EngagementLevel,
		TimeOfDay:        s.TimeOfDay,
		DayOfWeek:        s.DayOfWeek,
		Language:         s.Language,
		ContentLength:    s.ContentLength,
	}
}
