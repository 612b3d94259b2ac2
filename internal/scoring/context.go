package scoring

import (
	"math"
	"time"
)

// AuthorProfile is the author data the context depends on.
type AuthorProfile struct {
	ReputationScore    int
	AccountAgeDays     int
	PreviousViolations int
}

// ContentContext is the per-content snapshot used to adjust the final score.
type ContentContext struct {
	AuthorReputation float64 `json:"author_reputation"`
	// ThreadSentiment and EngagementLevel are fixed placeholders until thread analysis exists.
	ThreadSentiment float64 `json:"thread_sentiment"`
	EngagementLevel float64 `json:"engagement_level"`
	TimeOfDay       int     `json:"time_of_day"`
	DayOfWeek       int     `json:"day_of_week"`
	Language        string  `json:"language"`
	ContentLength   int     `json:"content_length"`
}

const (
	placeholderSentiment  = 0.0
	placeholderEngagement = 0.5
	defaultLanguage       = "en"
)

// ComputeContext builds the context of a content item at time now (converted to UTC).
func ComputeContext(author AuthorProfile, text string, now time.Time) ContentContext {
	now = now.UTC()
	return ContentContext{
		AuthorReputation: AuthorReputation(author),
		ThreadSentiment:  placeholderSentiment,
		EngagementLevel:  placeholderEngagement,
		TimeOfDay:        now.Hour(),
		DayOfWeek:        int(now.Weekday()),
		Language:         defaultLanguage,
		ContentLength:    len([]rune(text)),
	}
}

// AuthorReputation normalizes an author profile to [0,1].
func AuthorReputation(a AuthorProfile) float64 {
	r := float64(a.ReputationScore) / 100
	if a.AccountAgeDays > 30 {
		r += 0.1
	}
	r -= float64(a.PreviousViolations) * 0.1
	return math.Max(0, math.Min(1, r))
}

// Multiplier is applied to the final score. Factors compound and are not capped.
func (c ContentContext) Multiplier() float64 {
	m := 1.0
	switch {
	case c.AuthorReputation > 0.8:
		m *= 0.9
	case c.AuthorReputation < 0.3:
		m *= 1.2
	}
	if c.TimeOfDay >= 22 || c.TimeOfDay <= 6 {
		m *= 1.1
	}
	if c.EngagementLevel > 0.8 {
		m *= 1.15
	}
	return m
}
