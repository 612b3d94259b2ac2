package scoring

import "math"

// Lexicon scores above these values are treated as confident rule hits.
var categoryThreshold = map[string]float64{
	CategorySpam:      0.4,
	CategoryToxic:     0.5,
	CategoryHate:      0.6,
	CategoryOffensive: 0.5,
}

// Projector maps a single classifier probability onto the four categories.
type Projector interface {
	Project(probability float64) CategoryScores
}

// FixedProjection scales the probability by a constant factor per category.
type FixedProjection struct {
	Spam, Toxic, Hate, Offensive float64
}

// DefaultProjection is the single-probability projection the classifier has always used.
func DefaultProjection() FixedProjection {
	return FixedProjection{Spam: 1, Toxic: 0.7, Hate: 0.6, Offensive: 0.8}
}

func (p FixedProjection) Project(probability float64) CategoryScores {
	return CategoryScores{
		Spam:      probability * p.Spam,
		Toxic:     probability * p.Toxic,
		Hate:      probability * p.Hate,
		Offensive: probability * p.Offensive,
	}
}

// CombineCategory blends one lexicon score with one classifier score.
func CombineCategory(category string, lexicon, classifier float64) float64 {
	if lexicon > categoryThreshold[category] {
		return capScore(math.Max(lexicon, classifier) + classifier*0.1)
	}
	return capScore(classifier*0.7 + lexicon*0.3)
}

// Combine blends every category of lexicon with classifier.
func Combine(lexicon, classifier CategoryScores) CategoryScores {
	var out CategoryScores
	for _, cat := range ScoredCategories {
		out.Set(cat, CombineCategory(cat, lexicon.Get(cat), classifier.Get(cat)))
	}
	return out
}

// Combiner merges lexicon scores with the live classifier, if any.
type Combiner struct {
	Projector Projector
}

// NewCombiner returns a combiner using the default projection.
func NewCombiner() *Combiner {
	return &Combiner{Projector: DefaultProjection()}
}

// Merge returns lexicon unchanged when no model is loaded. A prediction error is returned together
// with the unchanged lexicon scores so the caller can fall back to them.
func (c *Combiner) Merge(lexicon CategoryScores, h Handle, text string) (CategoryScores, bool, error) {
	model, ok := h.Loaded()
	if !ok {
		return lexicon, false, nil
	}
	p, err := model.Predict(text)
	if err != nil {
		return lexicon, false, err
	}
	proj := c.Projector
	if proj == nil {
		proj = DefaultProjection()
	}
	return Combine(lexicon, proj.Project(p)), true, nil
}
