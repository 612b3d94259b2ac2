package services

import (
	"context"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

// ThresholdWindow is how far back reviews are considered for adaptation
const ThresholdWindow = 7 * 24 * time.Hour

// ThresholdUpdate describes one adaptation run
type ThresholdUpdate struct {
	Stats   scoring.ErrorStats `json:"stats"`
	Before  scoring.Thresholds `json:"before"`
	After   scoring.Thresholds `json:"after"`
	Changed bool               `json:"changed"`
	// Skipped is true when the window held fewer than MinAdaptationSamples reviews
	Skipped bool `json:"skipped"`
}

// ThresholdService nudges the decision thresholds from recent review error rates
type ThresholdService struct {
	db       *gorm.DB
	settings *SettingsService
	clamp    bool
	metrics  *metrics.ModerationMetrics
	now      func() time.Time
}

func NewThresholdService(db *gorm.DB, settings *SettingsService, clamp bool, m *metrics.ModerationMetrics) *ThresholdService {
	return &ThresholdService{db: db, settings: settings, clamp: clamp, metrics: m, now: time.Now}
}

// Outcomes pairs every gold-labelled review of the window with the latest prediction made
// at or before the review. Reviews of never-scored content have an empty Predicted decision.
func (s *ThresholdService) Outcomes(ctx context.Context, since time.Time) ([]scoring.ReviewOutcome, error) {
	db := s.db.WithContext(ctx)

	var reviews []models.Review
	err := db.Where("reviewed_at IS NOT NULL AND reviewed_at >= ? AND gold_label IS NOT NULL", since).
		Order("reviewed_at").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return nil, nil
	}

	contentIDs := make([]uint, 0, len(reviews))
	seen := make(map[uint]struct{}, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.ContentID]; !ok {
			seen[r.ContentID] = struct{}{}
			contentIDs = append(contentIDs, r.ContentID)
		}
	}

	var predictions []models.Prediction
	err = db.Select("id, content_id, decision, created_at").
		Where("content_id IN ?", contentIDs).
		Order("created_at ASC, id ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	byContent := make(map[uint][]models.Prediction, len(contentIDs))
	for _, p := range predictions {
		byContent[p.ContentID] = append(byContent[p.ContentID], p)
	}

	outcomes := make([]scoring.ReviewOutcome, 0, len(reviews))
	for _, r := range reviews {
		var predicted scoring.Decision
		for _, p := range byContent[r.ContentID] {
			if p.CreatedAt.After(*r.ReviewedAt) {
				break
			}
			predicted = scoring.Decision(p.Decision)
		}
		outcomes = append(outcomes, scoring.ReviewOutcome{
			Predicted: predicted,
			Gold:      scoring.Decision(*r.GoldLabel),
		})
	}
	return outcomes, nil
}

// Update runs one adaptation pass
func (s *ThresholdService) Update(ctx context.Context) (*ThresholdUpdate, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.Outcomes(ctx, s.now().Add(-ThresholdWindow))
	if err != nil {
		return nil, err
	}

	upd := &ThresholdUpdate{
		Stats:  scoring.ComputeErrorStats(outcomes),
		Before: settings.Thresholds(),
	}
	upd.After = upd.Before

	if upd.Stats.Samples < scoring.MinAdaptationSamples {
		upd.Skipped = true
		s.metrics.RecordThresholdRun("insufficient")
		logger.Debugf("[Threshold] %d reviews in window, need %d", upd.Stats.Samples, scoring.MinAdaptationSamples)
		return upd, nil
	}

	upd.After, upd.Changed = scoring.AdaptThresholds(upd.Before, upd.Stats, s.clamp)
	if !upd.Changed {
		s.metrics.RecordThresholdRun("unchanged")
		return upd, nil
	}

	err = s.db.WithContext(ctx).Model(settings).Updates(map[string]interface{}{
		"allow_threshold":  upd.After.Allow,
		"review_threshold": upd.After.Review,
		"block_threshold":  upd.After.Block,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("save thresholds: %w", err)
	}

	s.metrics.RecordThresholdRun("adjusted")
	s.metrics.SetThresholds(upd.After.Allow, upd.After.Review, upd.After.Block)
	logger.Infof("[Threshold] Adjusted review %.4f -> %.4f, block %.4f -> %.4f (fp=%.3f fn=%.3f, n=%d)",
		upd.Before.Review, upd.After.Review, upd.Before.Block, upd.After.Block,
		upd.Stats.FalsePositiveRate, upd.Stats.FalseNegativeRate, upd.Stats.Samples)
	LogInfo("threshold", "adjust", "Decision thresholds adapted from review error rates", nil, "", upd)
	return upd, nil
}
