package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"gorm.io/gorm"
)

// SettingsService is the store for the system_settings singleton
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Get returns the settings row, creating it with defaults on first access
func (s *SettingsService) Get(ctx context.Context) (*models.SystemSettings, error) {
	return getSettings(s.db.WithContext(ctx))
}

func getSettings(tx *gorm.DB) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := tx.Order("id").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.DefaultSystemSettings()
		if err := tx.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

// UpdateThresholds stores new decision thresholds
func (s *SettingsService) UpdateThresholds(ctx context.Context, t scoring.Thresholds) (*models.SystemSettings, error) {
	if !scoring.ValidThresholds(t) {
		return nil, ErrInvalidThresholds
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(settings).Updates(map[string]interface{}{
		"allow_threshold":  t.Allow,
		"review_threshold": t.Review,
		"block_threshold":  t.Block,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update thresholds: %w", err)
	}
	settings.AllowThreshold, settings.ReviewThreshold, settings.BlockThreshold = t.Allow, t.Review, t.Block
	return settings, nil
}

// UpdateRetrainThreshold sets the number of new gold labels that triggers a retrain
func (s *SettingsService) UpdateRetrainThreshold(ctx context.Context, n int) (*models.SystemSettings, error) {
	if n < 1 {
		return nil, ErrInvalidRetrainCount
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(settings).Update("retrain_threshold", n).Error; err != nil {
		return nil, fmt.Errorf("update retrain threshold: %w", err)
	}
	settings.RetrainThreshold = n
	return settings, nil
}

func (s *SettingsService) SetRetrainingEnabled(ctx context.Context, enabled bool) (*models.SystemSettings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(settings).Update("retraining_enabled", enabled).Error; err != nil {
		return nil, fmt.Errorf("update retraining flag: %w", err)
	}
	settings.RetrainingEnabled = enabled
	return settings, nil
}
