package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

// GoldLabelRequest is a moderator's verdict on a content item
type GoldLabelRequest struct {
	GoldLabel string `json:"gold_label" binding:"required"`
	// CorrectDecision defaults to whether the latest prediction matches the gold label
	CorrectDecision *bool  `json:"correct_decision"`
	Feedback        string `json:"feedback"`
}

// ReviewService records human feedback and feeds the retraining counter
type ReviewService struct {
	db               *gorm.DB
	settings         *SettingsService
	tasks            TaskQueue
	notifier         Notifier
	metrics          *metrics.ModerationMetrics
	immediateRetrain bool
}

func NewReviewService(db *gorm.DB, settings *SettingsService, tasks TaskQueue, notifier Notifier, m *metrics.ModerationMetrics, immediateRetrain bool) *ReviewService {
	return &ReviewService{
		db:               db,
		settings:         settings,
		tasks:            tasks,
		notifier:         notifier,
		metrics:          m,
		immediateRetrain: immediateRetrain,
	}
}

// Create opens an empty review for a content item
func (s *ReviewService) Create(ctx context.Context, contentID uint, moderatorID *uint) (*models.Review, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Content{}).Where("id = ?", contentID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrContentNotFound
	}
	review := &models.Review{ContentID: contentID, ModeratorID: moderatorID}
	if err := db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

// Submit creates a review for contentID and assigns its gold label
func (s *ReviewService) Submit(ctx context.Context, contentID uint, moderatorID *uint, req GoldLabelRequest) (*models.Review, error) {
	if !scoring.Decision(req.GoldLabel).Valid() {
		return nil, ErrInvalidGoldLabel
	}
	review, err := s.Create(ctx, contentID, moderatorID)
	if err != nil {
		return nil, err
	}
	return s.SubmitGold(ctx, review.ID, moderatorID, req)
}

// SubmitGold assigns the gold label of a review. The content status follows the label.
// The retrain counter grows once per review: editing a labelled review does not count again.
func (s *ReviewService) SubmitGold(ctx context.Context, reviewID uint, moderatorID *uint, req GoldLabelRequest) (*models.Review, error) {
	gold := scoring.Decision(req.GoldLabel)
	if !gold.Valid() {
		return nil, ErrInvalidGoldLabel
	}

	var review models.Review
	var firstLabel bool
	var status string
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		correct := req.CorrectDecision
		if correct == nil {
			latest, err := LatestPrediction(ctx, tx, review.ContentID)
			if err != nil {
				return err
			}
			if latest != nil {
				match := scoring.Decision(latest.Decision) == gold
				correct = &match
			}
		}

		label := string(gold)
		review.GoldLabel = &label
		review.CorrectDecision = correct
		review.Feedback = req.Feedback
		review.ReviewedAt = &now
		if moderatorID != nil {
			review.ModeratorID = moderatorID
		}
		if review.CountedAt == nil {
			firstLabel = true
			review.CountedAt = &now
		}
		if err := tx.Save(&review).Error; err != nil {
			return fmt.Errorf("save review: %w", err)
		}

		status = models.StatusForDecision(gold)
		if err := tx.Model(&models.Content{}).Where("id = ?", review.ContentID).Updates(map[string]interface{}{
			"status":       status,
			"processed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update content status: %w", err)
		}

		if firstLabel {
			if _, err := getSettings(tx); err != nil {
				return err
			}
			if err := tx.Model(&models.SystemSettings{}).Where("1 = 1").
				Update("new_gold_since_last_train", gorm.Expr("new_gold_since_last_train + 1")).Error; err != nil {
				return fmt.Errorf("increment gold counter: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordGoldLabel(string(gold))
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, ModerationResult{
			ContentID: review.ContentID,
			Decision:  string(gold),
			Status:    status,
			Source:    "review",
			Timestamp: now,
		}); err != nil {
			logger.Warnf("[Review] Notify failed for content %d: %v", review.ContentID, err)
		}
	}
	if firstLabel {
		s.triggerRetrain(ctx, review.ID)
	}
	return &review, nil
}

func (s *ReviewService) triggerRetrain(ctx context.Context, reviewID uint) {
	if !s.immediateRetrain || s.tasks == nil {
		return
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		logger.Warnf("[Review] Could not check retrain trigger: %v", err)
		return
	}
	if !settings.ShouldRetrain() {
		return
	}
	if err := s.tasks.Enqueue(NewRetrainTask("gold_label", reviewID)); err != nil {
		logger.Errorf("[Review] Failed to enqueue retrain task: %v", err)
	}
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Preload("Content").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// ListForContent returns the reviews of one content item, newest first
func (s *ReviewService) ListForContent(ctx context.Context, contentID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).Where("content_id = ?", contentID).
		Order("created_at DESC, id DESC").Find(&reviews).Error
	return reviews, err
}

// PendingQueue lists content waiting for a moderator, oldest first
func (s *ReviewService) PendingQueue(ctx context.Context, limit int) ([]models.Content, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var items []models.Content
	err := s.db.WithContext(ctx).Preload("Author").Preload("Image").
		Where("status = ?", models.ContentStatusPendingReview).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
