package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"gorm.io/gorm"
)

// QueueService is the content queue store. Only DequeueNextQueued needs atomic claim semantics.
type QueueService struct {
	db *gorm.DB

	// beforeClaim runs between selecting a candidate and claiming it. Tests use it to lose races.
	beforeClaim func(id uint)
}

func NewQueueService(db *gorm.DB) *QueueService {
	return &QueueService{db: db}
}

// Enqueue puts content back in the Queued state. Items a worker currently holds are
// refused with ErrContentProcessing so one item is never claimed twice.
func (s *QueueService) Enqueue(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	res := db.Model(&models.Content{}).
		Where("id = ? AND status <> ?", id, models.ContentStatusProcessing).
		Updates(map[string]interface{}{
			"status":                models.ContentStatusQueued,
			"processing_started_at": nil,
			"processed_at":          nil,
		})
	if res.Error != nil {
		return fmt.Errorf("requeue content %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// zero rows is either a missing item, a processing one, or (on MySQL) an unchanged queued row
	var current models.Content
	err := db.Select("id", "status").First(&current, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrContentNotFound
	}
	if err != nil {
		return fmt.Errorf("check content %d: %w", id, err)
	}
	if current.Status == models.ContentStatusProcessing {
		return ErrContentProcessing
	}
	return nil
}

// DequeueNextQueued claims the oldest queued item and returns it in the Processing state.
// It returns nil, nil only when nothing is queued. The claim is a conditional update, so two
// concurrent callers never receive the same item; a lost race moves on to the next candidate.
func (s *QueueService) DequeueNextQueued(ctx context.Context) (*models.Content, error) {
	db := s.db.WithContext(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var candidate models.Content
		err := db.Select("id").
			Where("status = ?", models.ContentStatusQueued).
			Order("created_at ASC, id ASC").
			First(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select queued content: %w", err)
		}

		if s.beforeClaim != nil {
			s.beforeClaim(candidate.ID)
		}

		now := time.Now()
		res := db.Model(&models.Content{}).
			Where("id = ? AND status = ?", candidate.ID, models.ContentStatusQueued).
			Updates(map[string]interface{}{
				"status":                models.ContentStatusProcessing,
				"processing_started_at": now,
			})
		if res.Error != nil {
			return nil, fmt.Errorf("claim content %d: %w", candidate.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// another worker claimed it first
			continue
		}

		var content models.Content
		if err := db.Preload("Author").Preload("Image").First(&content, candidate.ID).Error; err != nil {
			return nil, fmt.Errorf("load claimed content %d: %w", candidate.ID, err)
		}
		return &content, nil
	}
}

// UpdateStatus sets the status of a content item
func (s *QueueService) UpdateStatus(ctx context.Context, id uint, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == models.ContentStatusQueued {
		updates["processing_started_at"] = nil
		updates["processed_at"] = nil
	}
	res := s.db.WithContext(ctx).Model(&models.Content{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update status of content %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrContentNotFound
	}
	return nil
}

// SendToReview moves any content item to PendingReview
func (s *QueueService) SendToReview(ctx context.Context, id uint) error {
	return s.UpdateStatus(ctx, id, models.ContentStatusPendingReview)
}

// ResetStuck returns items that have been Processing for longer than timeout to the queue
func (s *QueueService) ResetStuck(ctx context.Context, timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	res := s.db.WithContext(ctx).Model(&models.Content{}).
		Where("status = ?", models.ContentStatusProcessing).
		Where("processing_started_at IS NULL OR processing_started_at < ?", cutoff).
		Updates(map[string]interface{}{
			"status":                models.ContentStatusQueued,
			"processing_started_at": nil,
			"processed_at":          nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("reset stuck content: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Counts returns the number of content items per status
func (s *QueueService) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Content{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count content by status: %w", err)
	}
	counts := map[string]int64{
		models.ContentStatusQueued:        0,
		models.ContentStatusProcessing:    0,
		models.ContentStatusApproved:      0,
		models.ContentStatusPendingReview: 0,
		models.ContentStatusBlocked:       0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
