package scoring

import "math"

// Threshold adaptation constants.
const (
	MinAdaptationSamples = 50
	maxErrorRate         = 0.10
	blockStep            = 0.05
	reviewStep           = 0.03

	thresholdMin = 0.05
	thresholdMax = 0.95
	thresholdGap = 0.01
)

// ReviewOutcome pairs the decision of the latest prediction with the gold label.
type ReviewOutcome struct {
	Predicted Decision
	Gold      Decision
}

// ErrorStats are the error rates of a review window.
type ErrorStats struct {
	Samples           int     `json:"samples"`
	FalsePositiveRate float64 `json:"false_positive_rate"`
	FalseNegativeRate float64 `json:"false_negative_rate"`
}

// ComputeErrorStats counts Block-but-Allow as false positives and Allow-but-Block as false negatives.
func ComputeErrorStats(outcomes []ReviewOutcome) ErrorStats {
	stats := ErrorStats{Samples: len(outcomes)}
	if stats.Samples == 0 {
		return stats
	}
	var fp, fn int
	for _, o := range outcomes {
		switch {
		case o.Predicted == DecisionBlock && o.Gold == DecisionAllow:
			fp++
		case o.Predicted == DecisionAllow && o.Gold == DecisionBlock:
			fn++
		}
	}
	stats.FalsePositiveRate = float64(fp) / float64(stats.Samples)
	stats.FalseNegativeRate = float64(fn) / float64(stats.Samples)
	return stats
}

// AdaptThresholds nudges the block and review thresholds. Both adjustments may apply in the same
// call and then partly cancel out. Windows smaller than MinAdaptationSamples leave t unchanged.
func AdaptThresholds(t Thresholds, stats ErrorStats, clamp bool) (Thresholds, bool) {
	if stats.Samples < MinAdaptationSamples {
		return t, false
	}
	fpHigh := stats.FalsePositiveRate > maxErrorRate
	fnHigh := stats.FalseNegativeRate > maxErrorRate
	if !fpHigh && !fnHigh {
		// stored values are left as they are, rounding alone is not a change
		return t, false
	}
	next := t
	if fpHigh {
		next.Block += blockStep
		next.Review += reviewStep
	}
	if fnHigh {
		next.Block -= blockStep
		next.Review -= reviewStep
	}
	next = roundThresholds(next)
	if clamp {
		next = ClampThresholds(next)
	}
	return next, next != t
}

// ClampThresholds keeps every threshold in [0.05, 0.95] with Allow < Review < Block.
func ClampThresholds(t Thresholds) Thresholds {
	t.Block = clampRange(t.Block, thresholdMin+2*thresholdGap, thresholdMax)
	t.Review = clampRange(t.Review, thresholdMin+thresholdGap, t.Block-thresholdGap)
	t.Allow = clampRange(t.Allow, thresholdMin, t.Review-thresholdGap)
	return roundThresholds(t)
}

// ValidThresholds reports whether t is ordered and inside [0,1].
func ValidThresholds(t Thresholds) bool {
	return t.Allow >= 0 && t.Block <= 1 && t.Allow < t.Review && t.Review < t.Block
}

func clampRange(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundThresholds(t Thresholds) Thresholds {
	r := func(v float64) float64 { return math.Round(v*1e4) / 1e4 }
	return Thresholds{Allow: r(t.Allow), Review: r(t.Review), Block: r(t.Block)}
}
