package scoring

import (
	"context"
	"strings"
)

// Image labels below this confidence are not added to the text.
const LabelAppendConfidence = 0.3

// ImageLabel is the top label of an image classification.
type ImageLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ImageClassifier labels raw image bytes.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte) (ImageLabel, error)
}

// BoostRule adds Boost to each listed category when the image label contains LabelContains
// with a confidence above MinConfidence.
type BoostRule struct {
	LabelContains string   `yaml:"label_contains" json:"label_contains"`
	MinConfidence float64  `yaml:"min_confidence" json:"min_confidence"`
	Categories    []string `yaml:"categories" json:"categories"`
	Boost         float64  `yaml:"boost" json:"boost"`
}

// DefaultBoostRules keeps the historic dog rule.
func DefaultBoostRules() []BoostRule {
	return []BoostRule{{
		LabelContains: "dog",
		MinConfidence: 0.5,
		Categories:    []string{CategoryToxic, CategoryHate, CategoryOffensive},
		Boost:         0.3,
	}}
}

func (r BoostRule) matches(img ImageLabel) bool {
	if r.LabelContains == "" {
		return false
	}
	return img.Confidence > r.MinConfidence &&
		strings.Contains(strings.ToLower(img.Label), strings.ToLower(r.LabelContains))
}

// AugmentText appends the image label to text so wordlists can match it.
func AugmentText(text string, img *ImageLabel) string {
	if img == nil || img.Label == "" || img.Confidence <= LabelAppendConfidence {
		return text
	}
	return text + " " + img.Label
}

// ApplyBoosts applies every matching rule, capping each category at MaxScore.
func ApplyBoosts(scores CategoryScores, img *ImageLabel, rules []BoostRule) (CategoryScores, bool) {
	if img == nil {
		return scores, false
	}
	boosted := false
	for _, r := range rules {
		if !r.matches(*img) {
			continue
		}
		for _, cat := range r.Categories {
			scores.Set(cat, capScore(scores.Get(cat)+r.Boost))
		}
		boosted = true
	}
	return scores, boosted
}
