package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"gorm.io/gorm"
)

// ContextService computes the content context once per item and caches it in content_contexts
type ContextService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewContextService(db *gorm.DB) *ContextService {
	return &ContextService{db: db, now: time.Now}
}

// GetOrCompute returns the cached snapshot of content, computing and storing it on first use
func (s *ContextService) GetOrCompute(ctx context.Context, content *models.Content) (scoring.ContentContext, error) {
	db := s.db.WithContext(ctx)

	var row models.ContentContext
	err := db.Where("content_id = ?", content.ID).First(&row).Error
	if err == nil {
		return row.Snapshot(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return scoring.ContentContext{}, fmt.Errorf("load context of content %d: %w", content.ID, err)
	}

	author := content.Author
	if author == nil {
		author = &models.Author{}
		if err := db.First(author, content.AuthorID).Error; err != nil {
			return scoring.ContentContext{}, fmt.Errorf("load author %d: %w", content.AuthorID, err)
		}
	}

	snap := scoring.ComputeContext(author.Profile(), content.Text, s.now())
	row = models.NewContentContext(content.ID, snap)
	if err := db.Create(&row).Error; err != nil {
		return scoring.ContentContext{}, fmt.Errorf("store context of content %d: %w", content.ID, err)
	}
	return snap, nil
}
