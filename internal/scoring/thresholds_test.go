package scoring

import "testing"

func outcomes(n int, predicted, gold Decision, rest int) []ReviewOutcome {
	out := make([]ReviewOutcome, 0, n+rest)
	for i := 0; i < n; i++ {
		out = append(out, ReviewOutcome{Predicted: predicted, Gold: gold})
	}
	for i := 0; i < rest; i++ {
		out = append(out, ReviewOutcome{Predicted: DecisionReview, Gold: DecisionReview})
	}
	return out
}

func TestComputeErrorStats(t *testing.T) {
	o := append(outcomes(10, DecisionBlock, DecisionAllow, 0), outcomes(5, DecisionAllow, DecisionBlock, 35)...)

	s := ComputeErrorStats(o)
	if s.Samples != 50 {
		t.Errorf("samples = %d, expected 50", s.Samples)
	}
	if !approx(s.FalsePositiveRate, 0.2) {
		t.Errorf("false positive rate = %v, expected 0.2", s.FalsePositiveRate)
	}
	if !approx(s.FalseNegativeRate, 0.1) {
		t.Errorf("false negative rate = %v, expected 0.1", s.FalseNegativeRate)
	}

	if empty := ComputeErrorStats(nil); empty.Samples != 0 || empty.FalsePositiveRate != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestAdaptThresholds(t *testing.T) {
	base := DefaultThresholds()

	tests := []struct {
		name     string
		stats    ErrorStats
		expected Thresholds
		changed  bool
	}{
		{"too few samples", ErrorStats{Samples: 49, FalsePositiveRate: 0.5}, base, false},
		{"quiet week", ErrorStats{Samples: 80, FalsePositiveRate: 0.1, FalseNegativeRate: 0.1}, base, false},
		{"false positives", ErrorStats{Samples: 50, FalsePositiveRate: 0.2}, Thresholds{Allow: 0.3, Review: 0.53, Block: 0.75}, true},
		{"false negatives", ErrorStats{Samples: 50, FalseNegativeRate: 0.2}, Thresholds{Allow: 0.3, Review: 0.47, Block: 0.65}, true},
		{"both cancel out", ErrorStats{Samples: 50, FalsePositiveRate: 0.2, FalseNegativeRate: 0.2}, base, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := AdaptThresholds(base, tt.stats, true)
			if got != tt.expected || changed != tt.changed {
				t.Errorf("AdaptThresholds = %+v (changed %v), expected %+v (changed %v)", got, changed, tt.expected, tt.changed)
			}
		})
	}
}

func TestAdaptThresholds_NoRuleKeepsUnroundedValues(t *testing.T) {
	stored := Thresholds{Allow: 0.30001, Review: 0.500004, Block: 0.7000049}
	stats := ErrorStats{Samples: 120}

	for _, clamp := range []bool{true, false} {
		got, changed := AdaptThresholds(stored, stats, clamp)
		if changed {
			t.Errorf("clamp=%v: changed = true, expected false when no rule fires", clamp)
		}
		if got != stored {
			t.Errorf("clamp=%v: AdaptThresholds = %+v, expected %+v", clamp, got, stored)
		}
	}
}

func TestAdaptThresholds_ClampUpperBound(t *testing.T) {
	high := Thresholds{Allow: 0.5, Review: 0.93, Block: 0.95}
	stats := ErrorStats{Samples: 60, FalsePositiveRate: 0.3}

	unclamped, _ := AdaptThresholds(high, stats, false)
	if !approx(unclamped.Block, 1.0) {
		t.Errorf("unclamped block = %v, expected 1.0", unclamped.Block)
	}

	clamped, _ := AdaptThresholds(high, stats, true)
	if clamped.Block != 0.95 || clamped.Review != 0.94 {
		t.Errorf("clamped = %+v, expected block 0.95 review 0.94", clamped)
	}
	if !ValidThresholds(clamped) {
		t.Errorf("clamped thresholds not ordered: %+v", clamped)
	}
}

func TestAdaptThresholds_ClampLowerBound(t *testing.T) {
	low := Thresholds{Allow: 0.06, Review: 0.08, Block: 0.1}
	stats := ErrorStats{Samples: 60, FalseNegativeRate: 0.3}

	got, changed := AdaptThresholds(low, stats, true)
	if !changed {
		t.Error("expected a change")
	}
	expected := Thresholds{Allow: 0.05, Review: 0.06, Block: 0.07}
	if got != expected {
		t.Errorf("clamped = %+v, expected %+v", got, expected)
	}
}

func TestAdaptThresholds_RepeatedDriftStaysInRange(t *testing.T) {
	th := DefaultThresholds()
	stats := ErrorStats{Samples: 100, FalseNegativeRate: 0.5}
	for i := 0; i < 100; i++ {
		th, _ = AdaptThresholds(th, stats, true)
		if !ValidThresholds(th) || th.Allow < 0.05 || th.Block > 0.95 {
			t.Fatalf("iteration %d produced %+v", i, th)
		}
	}
}

func TestValidThresholds(t *testing.T) {
	if !ValidThresholds(DefaultThresholds()) {
		t.Error("default thresholds should be valid")
	}
	if ValidThresholds(Thresholds{Allow: 0.5, Review: 0.4, Block: 0.7}) {
		t.Error("unordered thresholds should be invalid")
	}
	if ValidThresholds(Thresholds{Allow: 0.3, Review: 0.5, Block: 1.2}) {
		t.Error("block above 1 should be invalid")
	}
}
