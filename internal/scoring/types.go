package scoring

import "math"

// Category names used by the lexicon and wordlist.
const (
	CategorySpam      = "spam"
	CategoryToxic     = "toxic"
	CategoryHate      = "hate"
	CategoryOffensive = "offensive"
	CategorySlur      = "slur"
)

// ScoredCategories are the four categories that receive a score. Slur words are folded into
// toxic, hate and offensive before matching and never scored on their own.
var ScoredCategories = []string{CategorySpam, CategoryToxic, CategoryHate, CategoryOffensive}

// Score bounds for a single category.
const (
	FloorScore = 0.05
	MaxScore   = 0.95
)

// Decision is the outcome of a scoring pass.
type Decision string

const (
	DecisionAllow  Decision = "allow"
	DecisionReview Decision = "review"
	DecisionBlock  Decision = "block"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionAllow, DecisionReview, DecisionBlock:
		return true
	}
	return false
}

// ConfidenceLevel measures how far the final score sits from the review boundary.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// CategoryScores holds one score per scored category, each in [FloorScore, MaxScore].
type CategoryScores struct {
	Spam      float64 `json:"spam"`
	Toxic     float64 `json:"toxic"`
	Hate      float64 `json:"hate"`
	Offensive float64 `json:"offensive"`
}

// FloorScores returns the "no signal" result.
func FloorScores() CategoryScores {
	return CategoryScores{Spam: FloorScore, Toxic: FloorScore, Hate: FloorScore, Offensive: FloorScore}
}

// Get returns the score of a category, 0 for unknown names.
func (s CategoryScores) Get(category string) float64 {
	switch category {
	case CategorySpam:
		return s.Spam
	case CategoryToxic:
		return s.Toxic
	case CategoryHate:
		return s.Hate
	case CategoryOffensive:
		return s.Offensive
	}
	return 0
}

// Set replaces the score of a category. Unknown names are ignored.
func (s *CategoryScores) Set(category string, v float64) {
	switch category {
	case CategorySpam:
		s.Spam = v
	case CategoryToxic:
		s.Toxic = v
	case CategoryHate:
		s.Hate = v
	case CategoryOffensive:
		s.Offensive = v
	}
}

// Thresholds are the runtime-tunable decision boundaries.
type Thresholds struct {
	Allow  float64 `json:"allow"`
	Review float64 `json:"review"`
	Block  float64 `json:"block"`
}

// DefaultThresholds returns the thresholds a fresh installation starts with.
func DefaultThresholds() Thresholds {
	return Thresholds{Allow: 0.3, Review: 0.5, Block: 0.7}
}

func capScore(v float64) float64 {
	return math.Min(MaxScore, v)
}
