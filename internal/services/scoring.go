package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

// contextFactors is the snapshot serialized on each prediction
type contextFactors struct {
	AuthorReputation float64 `json:"author_reputation"`
	ThreadSentiment  float64 `json:"thread_sentiment"`
	EngagementLevel  float64 `json:"engagement_level"`
	TimeOfDay        int     `json:"time_of_day"`
	DayOfWeek        int     `json:"day_of_week"`
	Language         string  `json:"language"`
	ContentLength    int     `json:"content_length"`
	Multiplier       float64 `json:"multiplier"`
	ClassifierUsed   bool    `json:"classifier_used"`
	ImageLabel       string  `json:"image_label,omitempty"`
	ImageConfidence  float64 `json:"image_confidence,omitempty"`
	ImageBoosted     bool    `json:"image_boosted"`
}

func newContextFactors(r scoring.Result) contextFactors {
	return contextFactors{
		AuthorReputation: r.Context.AuthorReputation,
		ThreadSentiment:  r.Context.ThreadSentiment,
		EngagementLevel:  r.Context.EngagementLevel,
		TimeOfDay:        r.Context.TimeOfDay,
		DayOfWeek:        r.Context.DayOfWeek,
		Language:         r.Context.Language,
		ContentLength:    r.Context.ContentLength,
		Multiplier:       r.Multiplier,
		ClassifierUsed:   r.ClassifierUsed,
		ImageLabel:       r.ImageLabel,
		ImageConfidence:  r.ImageConfidence,
		ImageBoosted:     r.ImageBoosted,
	}
}

// ScoreOutcome is the persisted result of one scoring pass
type ScoreOutcome struct {
	Prediction *models.Prediction
	Result     scoring.Result
	Status     string
	// ClassifierErr is set when the classifier failed and lexicon-only scores were used
	ClassifierErr error
}

// ScoringService scores a claimed content item and persists the prediction and the new status
type ScoringService struct {
	db         *gorm.DB
	settings   *SettingsService
	wordlist   *WordlistService
	contexts   *ContextService
	classifier *scoring.Classifier
	engine     *scoring.Engine
	boostRules []scoring.BoostRule
	metrics    *metrics.ModerationMetrics
}

func NewScoringService(
	db *gorm.DB,
	settings *SettingsService,
	wordlist *WordlistService,
	contexts *ContextService,
	classifier *scoring.Classifier,
	boostRules []scoring.BoostRule,
	m *metrics.ModerationMetrics,
) *ScoringService {
	return &ScoringService{
		db:         db,
		settings:   settings,
		wordlist:   wordlist,
		contexts:   contexts,
		classifier: classifier,
		engine:     scoring.NewEngine(),
		boostRules: boostRules,
		metrics:    m,
	}
}

// ScoreAndDecide runs the full pipeline for content and persists the outcome.
// Settings and the lexicon snapshot are re-read on every call. content must be held in the
// Processing state by the caller; ErrClaimLost is returned when it left that state meanwhile.
func (s *ScoringService) ScoreAndDecide(ctx context.Context, content *models.Content) (*ScoreOutcome, error) {
	start := time.Now()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	lex, err := s.wordlist.Lexicon(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.contexts.GetOrCompute(ctx, content)
	if err != nil {
		return nil, err
	}

	in := scoring.Input{
		Text:       content.Text,
		Context:    snap,
		Image:      content.Image.Classification(),
		Lexicon:    lex,
		Classifier: s.classifier.Handle(),
		Thresholds: settings.Thresholds(),
		BoostRules: s.boostRules,
	}
	result, classifierErr := s.engine.Evaluate(in)
	if classifierErr != nil {
		s.metrics.RecordClassifierFallback()
		logger.Warn().Err(classifierErr).Uint("content_id", content.ID).
			Msg("[Moderation] Classifier failed, using lexicon scores")
	}

	factors, err := json.Marshal(newContextFactors(result))
	if err != nil {
		return nil, fmt.Errorf("marshal context factors: %w", err)
	}

	prediction := &models.Prediction{
		ContentID:      content.ID,
		SpamScore:      result.Scores.Spam,
		ToxicScore:     result.Scores.Toxic,
		HateScore:      result.Scores.Hate,
		OffensiveScore: result.Scores.Offensive,
		FinalScore:     result.FinalScore,
		Decision:       string(result.Decision),
		Confidence:     string(result.Confidence),
		ModelVersion:   result.ModelVersion,
		ContextFactors: string(factors),
	}
	status := models.StatusForDecision(result.Decision)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prediction).Error; err != nil {
			return fmt.Errorf("create prediction: %w", err)
		}
		now := time.Now()
		res := tx.Model(&models.Content{}).
			Where("id = ? AND status = ?", content.ID, models.ContentStatusProcessing).
			Updates(map[string]interface{}{
				"status":       status,
				"processed_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("update content status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// requeued, reset or reviewed while scoring; the newer state wins
			return ErrClaimLost
		}
		content.Status = status
		content.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordScored(prediction.Decision, prediction.FinalScore, time.Since(start))
	return &ScoreOutcome{
		Prediction:    prediction,
		Result:        result,
		Status:        status,
		ClassifierErr: classifierErr,
	}, nil
}

// LatestPrediction returns the newest prediction of a content item, nil when it was never scored
func LatestPrediction(ctx context.Context, db *gorm.DB, contentID uint) (*models.Prediction, error) {
	var p models.Prediction
	res := db.WithContext(ctx).Where("content_id = ?", contentID).
		Order("created_at DESC, id DESC").Limit(1).Find(&p)
	if res.Error != nil {
		return nil, fmt.Errorf("load latest prediction of content %d: %w", contentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &p, nil
}
