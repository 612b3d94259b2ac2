package scoring

import (
	"errors"
	"testing"
)

func TestDecide_StrictBoundaries(t *testing.T) {
	th := Thresholds{Allow: 0.3, Review: 0.5, Block: 0.7}

	tests := []struct {
		score    float64
		expected Decision
	}{
		{0.0, DecisionAllow},
		{0.29, DecisionAllow},
		{0.3, DecisionReview},
		{0.5, DecisionReview},
		{0.7, DecisionReview},
		{0.71, DecisionBlock},
		{1.3, DecisionBlock},
	}
	for _, tt := range tests {
		if got := Decide(tt.score, th); got != tt.expected {
			t.Errorf("Decide(%v) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}

func TestConfidence(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		score    float64
		expected ConfidenceLevel
	}{
		{0.05, ConfidenceHigh},
		{0.8, ConfidenceHigh},
		{0.32, ConfidenceMedium},
		{0.66, ConfidenceMedium},
		{0.55, ConfidenceLow},
		{0.45, ConfidenceLow},
	}
	for _, tt := range tests {
		if got := Confidence(tt.score, th); got != tt.expected {
			t.Errorf("Confidence(%v) = %s, expected %s", tt.score, got, tt.expected)
		}
	}
}

func TestFinalScore_NotClamped(t *testing.T) {
	s := CategoryScores{Spam: MaxScore, Toxic: MaxScore, Hate: MaxScore, Offensive: MaxScore}

	got := FinalScore(s, 1.2*1.1*1.15)
	if got <= 1 {
		t.Errorf("FinalScore = %v, expected a value above 1 with a strict multiplier", got)
	}
}

func neutralContext() ContentContext {
	return ContentContext{AuthorReputation: 0.5, EngagementLevel: 0.5, TimeOfDay: 12, Language: "en"}
}

func TestEngine_Evaluate_SpamScenario(t *testing.T) {
	e := NewEngine()

	res, err := e.Evaluate(Input{
		Text:       "BUY NOW!!! CLICK HERE CLICK HERE CLICK HERE",
		Context:    neutralContext(),
		Lexicon:    NewLexicon(nil),
		Classifier: NoClassifier,
		Thresholds: DefaultThresholds(),
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !approx(res.Multiplier, 1.0) {
		t.Errorf("multiplier = %v, expected 1.0", res.Multiplier)
	}
	if !approx(res.FinalScore, 0.32) {
		t.Errorf("final score = %v, expected 0.32", res.FinalScore)
	}
	if res.Decision != DecisionReview {
		t.Errorf("decision = %s, expected review", res.Decision)
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("confidence = %s, expected medium", res.Confidence)
	}
	if res.ClassifierUsed {
		t.Error("classifier should not be used when none is loaded")
	}
}

func TestEngine_Evaluate_EmptyTextIsAllowed(t *testing.T) {
	e := NewEngine()

	res, err := e.Evaluate(Input{Context: neutralContext(), Thresholds: DefaultThresholds()})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.Scores != FloorScores() {
		t.Errorf("scores = %+v, expected floor", res.Scores)
	}
	if !approx(res.FinalScore, 0.05) {
		t.Errorf("final score = %v, expected 0.05", res.FinalScore)
	}
	if res.Decision != DecisionAllow {
		t.Errorf("decision = %s, expected allow", res.Decision)
	}
}

func TestEngine_Evaluate_ClassifierFailureFallsBack(t *testing.T) {
	e := NewEngine()
	failing := LoadedClassifier(&stubModel{err: errors.New("boom")}, 3)

	res, err := e.Evaluate(Input{
		Text:       "stupid",
		Context:    neutralContext(),
		Classifier: failing,
		Thresholds: DefaultThresholds(),
	})
	if err == nil {
		t.Fatal("expected the classifier error to be returned")
	}
	if res.ClassifierUsed {
		t.Error("ClassifierUsed should be false after a prediction error")
	}
	if !approx(res.Scores.Toxic, 0.7) {
		t.Errorf("toxic = %v, expected lexicon-only 0.7", res.Scores.Toxic)
	}
	if res.Decision == "" {
		t.Error("decision should still be computed")
	}
}

func TestEngine_Evaluate_ImageBoost(t *testing.T) {
	e := NewEngine()

	res, err := e.Evaluate(Input{
		Text:       "look at this",
		Context:    neutralContext(),
		Image:      &ImageLabel{Label: "golden retriever dog", Confidence: 0.9},
		Thresholds: DefaultThresholds(),
		BoostRules: DefaultBoostRules(),
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !res.ImageBoosted {
		t.Error("expected image boost to apply")
	}
	if !approx(res.Scores.Toxic, 0.35) || !approx(res.Scores.Hate, 0.35) || !approx(res.Scores.Offensive, 0.35) {
		t.Errorf("boosted scores = %+v, expected 0.35 on abuse categories", res.Scores)
	}
	if res.Scores.Spam != FloorScore {
		t.Errorf("spam = %v, expected floor", res.Scores.Spam)
	}
	if res.ImageLabel != "golden retriever dog" {
		t.Errorf("image label = %q", res.ImageLabel)
	}
}
