package scoring

import "math"

// Category weights of the final score.
var categoryWeights = CategoryScores{Spam: 0.3, Toxic: 0.3, Hate: 0.25, Offensive: 0.15}

// FinalScore is the weighted category sum times the context multiplier. It is not clamped.
func FinalScore(s CategoryScores, multiplier float64) float64 {
	weighted := s.Spam*categoryWeights.Spam +
		s.Toxic*categoryWeights.Toxic +
		s.Hate*categoryWeights.Hate +
		s.Offensive*categoryWeights.Offensive
	return weighted * multiplier
}

// Decide maps a final score to a decision. Both boundaries are strict, so a score equal to
// either threshold is a Review.
func Decide(finalScore float64, t Thresholds) Decision {
	switch {
	case finalScore < t.Allow:
		return DecisionAllow
	case finalScore > t.Block:
		return DecisionBlock
	default:
		return DecisionReview
	}
}

// Confidence measures the distance from the review threshold.
func Confidence(finalScore float64, t Thresholds) ConfidenceLevel {
	d := math.Abs(finalScore - t.Review)
	switch {
	case d > 0.2:
		return ConfidenceHigh
	case d > 0.1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Result is the outcome of a full scoring pass.
type Result struct {
	Scores          CategoryScores
	Context         ContentContext
	Multiplier      float64
	FinalScore      float64
	Decision        Decision
	Confidence      ConfidenceLevel
	ClassifierUsed  bool
	ModelVersion    int
	ImageLabel      string
	ImageConfidence float64
	ImageBoosted    bool
}

// Input is everything one scoring pass depends on.
type Input struct {
	Text       string
	Context    ContentContext
	Image      *ImageLabel
	Lexicon    *Lexicon
	Classifier Handle
	Thresholds Thresholds
	BoostRules []BoostRule
}

// Engine runs the lexicon, combiner, image boosts and decision steps.
type Engine struct {
	Combiner *Combiner
}

// NewEngine returns an engine with the default combiner.
func NewEngine() *Engine {
	return &Engine{Combiner: NewCombiner()}
}

// Evaluate scores one item. A classifier error is returned alongside a complete lexicon-only result.
func (e *Engine) Evaluate(in Input) (Result, error) {
	lex := in.Lexicon
	if lex == nil {
		lex = NewLexicon(nil)
	}
	text := AugmentText(in.Text, in.Image)
	scores := lex.Score(text)

	combiner := e.Combiner
	if combiner == nil {
		combiner = NewCombiner()
	}
	scores, used, predictErr := combiner.Merge(scores, in.Classifier, text)

	scores, boosted := ApplyBoosts(scores, in.Image, in.BoostRules)

	res := Result{
		Scores:         scores,
		Context:        in.Context,
		Multiplier:     in.Context.Multiplier(),
		ClassifierUsed: used,
		ImageBoosted:   boosted,
	}
	if used {
		res.ModelVersion = in.Classifier.Version()
	}
	if in.Image != nil {
		res.ImageLabel = in.Image.Label
		res.ImageConfidence = in.Image.Confidence
	}
	res.FinalScore = FinalScore(scores, res.Multiplier)
	res.Decision = Decide(res.FinalScore, in.Thresholds)
	res.Confidence = Confidence(res.FinalScore, in.Thresholds)
	return res, predictErr
}
