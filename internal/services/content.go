package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

// SubmitContentRequest is a new submission. Unknown authors are created on the fly.
type SubmitContentRequest struct {
	Type           string  `json:"type" form:"type" binding:"required"`
	Text           string  `json:"text" form:"text"`
	AuthorUsername string  `json:"author_username" form:"author_username" binding:"required"`
	ThreadID       *string `json:"thread_id" form:"thread_id"`
}

// ImageUpload is an image attached to a post
type ImageUpload struct {
	FileName string
	MimeType string
	Data     []byte
}

// ContentDetail is a content item with its latest prediction and reviews
type ContentDetail struct {
	Content          *models.Content    `json:"content"`
	LatestPrediction *models.Prediction `json:"latest_prediction"`
	Reviews          []models.Review    `json:"reviews"`
}

// ContentService accepts submissions into the queue
type ContentService struct {
	db     *gorm.DB
	images scoring.ImageClassifier
}

// NewContentService builds the service. images may be nil when no image classifier is configured.
func NewContentService(db *gorm.DB, images scoring.ImageClassifier) *ContentService {
	return &ContentService{db: db, images: images}
}

// Submit stores the content as Queued. An attached image is classified before the item is queued.
func (s *ContentService) Submit(ctx context.Context, req SubmitContentRequest, img *ImageUpload) (*models.Content, error) {
	contentType := strings.ToLower(strings.TrimSpace(req.Type))
	if !models.ValidContentType(contentType) {
		return nil, ErrInvalidContentType
	}
	if img != nil && contentType != models.ContentTypePost {
		return nil, ErrImageNotAllowed
	}

	var image *models.ContentImage
	if img != nil {
		image = &models.ContentImage{
			FileName: img.FileName,
			MimeType: img.MimeType,
			FileSize: int64(len(img.Data)),
		}
		s.classifyImage(ctx, image, img.Data)
	}

	content := &models.Content{
		Type:     contentType,
		Text:     req.Text,
		ThreadID: req.ThreadID,
		Status:   models.ContentStatusQueued,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := findOrCreateAuthor(tx, req.AuthorUsername)
		if err != nil {
			return err
		}
		content.AuthorID = author.ID
		content.Author = author
		if err := tx.Omit("Image").Create(content).Error; err != nil {
			return fmt.Errorf("create content: %w", err)
		}
		if image != nil {
			image.ContentID = content.ID
			if err := tx.Create(image).Error; err != nil {
				return fmt.Errorf("create content image: %w", err)
			}
			content.Image = image
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return content, nil
}

func (s *ContentService) classifyImage(ctx context.Context, image *models.ContentImage, data []byte) {
	if s.images == nil || len(data) == 0 {
		return
	}
	label, err := s.images.Classify(ctx, data)
	if err != nil {
		logger.Warnf("[Content] Image classification failed for %s, scoring text only: %v", image.FileName, err)
		return
	}
	now := time.Now()
	image.Label = label.Label
	image.Confidence = label.Confidence
	image.ClassifiedAt = &now
}

func findOrCreateAuthor(tx *gorm.DB, username string) (*models.Author, error) {
	username = strings.TrimSpace(username)
	var author models.Author
	err := tx.Where("username = ?", username).First(&author).Error
	if err == nil {
		return &author, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up author %q: %w", username, err)
	}
	author = models.Author{Username: username, ReputationScore: models.DefaultAuthorReputation}
	if err := tx.Create(&author).Error; err != nil {
		return nil, fmt.Errorf("create author %q: %w", username, err)
	}
	return &author, nil
}

// Get returns a content item with its latest prediction and reviews
func (s *ContentService) Get(ctx context.Context, id uint) (*ContentDetail, error) {
	db := s.db.WithContext(ctx)
	var content models.Content
	if err := db.Preload("Author").Preload("Image").First(&content, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	latest, err := LatestPrediction(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	var reviews []models.Review
	if err := db.Where("content_id = ?", id).Order("created_at DESC, id DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return &ContentDetail{Content: &content, LatestPrediction: latest, Reviews: reviews}, nil
}

// Predictions returns every prediction of a content item, newest first
func (s *ContentService) Predictions(ctx context.Context, id uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := s.db.WithContext(ctx).Where("content_id = ?", id).Order("created_at DESC, id DESC").Find(&predictions).Error
	return predictions, err
}
