package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"gorm.io/gorm"
)

// MinTrainingSamples is the number of gold labels required to train
const MinTrainingSamples = 10

// Trainer fits a model on labelled examples
type Trainer func(examples []scoring.Example) (scoring.Model, scoring.Metrics, error)

// ModelLoader reads a model blob from disk
type ModelLoader func(path string) (scoring.Model, error)

func naiveBayesTrainer(examples []scoring.Example) (scoring.Model, scoring.Metrics, error) {
	nb, m, err := scoring.TrainNaiveBayes(examples)
	if err != nil {
		return nil, scoring.Metrics{}, err
	}
	return nb, m, nil
}

func naiveBayesLoader(path string) (scoring.Model, error) {
	nb, err := scoring.LoadNaiveBayes(path)
	if err != nil {
		return nil, err
	}
	return nb, nil
}

// ModelStatus reports the active version and the live classifier
type ModelStatus struct {
	Loaded                bool                 `json:"loaded"`
	LoadedVersion         int                  `json:"loaded_version"`
	Active                *models.ModelVersion `json:"active,omitempty"`
	NewGoldSinceLastTrain int                  `json:"new_gold_since_last_train"`
	RetrainThreshold      int                  `json:"retrain_threshold"`
	RetrainingEnabled     bool                 `json:"retraining_enabled"`
	LastRetrainDate       *time.Time           `json:"last_retrain_date"`
}

// TrainingService trains classifier versions from gold labels and keeps the live classifier current.
// Training runs are serialized.
type TrainingService struct {
	db         *gorm.DB
	settings   *SettingsService
	classifier *scoring.Classifier
	modelDir   string
	metrics    *metrics.ModerationMetrics

	trainer Trainer
	loader  ModelLoader

	mu sync.Mutex
	// syncedVersion is the active version last applied to the classifier, loaded or not
	syncedVersion int
}

func NewTrainingService(db *gorm.DB, settings *SettingsService, classifier *scoring.Classifier, modelDir string, m *metrics.ModerationMetrics) *TrainingService {
	return &TrainingService{
		db:         db,
		settings:   settings,
		classifier: classifier,
		modelDir:   modelDir,
		metrics:    m,
		trainer:    naiveBayesTrainer,
		loader:     naiveBayesLoader,
	}
}

// ShouldRetrain reports whether enough new gold labels arrived while retraining is enabled
func (s *TrainingService) ShouldRetrain(ctx context.Context) (bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.ShouldRetrain(), nil
}

// RetrainIfNeeded trains and activates a new version when ShouldRetrain holds.
// It returns nil, nil when no retrain was due.
func (s *TrainingService) RetrainIfNeeded(ctx context.Context) (*models.ModelVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due, err := s.ShouldRetrain(ctx)
	if err != nil {
		return nil, err
	}
	if !due {
		s.metrics.RecordRetrain("skipped")
		return nil, nil
	}
	return s.train(ctx, true)
}

// Train fits a new version from all gold labels, optionally activating it
func (s *TrainingService) Train(ctx context.Context, activate bool) (*models.ModelVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.train(ctx, activate)
}

type goldRow struct {
	GoldLabel string
	Text      string
}

// snapshot reads the gold labels and the counter value they account for in one transaction
func (s *TrainingService) snapshot(ctx context.Context) ([]scoring.Example, int, error) {
	var rows []goldRow
	var counter int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		settings, err := getSettings(tx)
		if err != nil {
			return err
		}
		counter = settings.NewGoldSinceLastTrain
		return tx.Table("reviews").
			Select("reviews.gold_label AS gold_label, contents.text AS text").
			Joins("JOIN contents ON contents.id = reviews.content_id").
			Where("reviews.gold_label IS NOT NULL").
			Order("reviews.id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, 0, fmt.Errorf("snapshot gold labels: %w", err)
	}

	examples := make([]scoring.Example, 0, len(rows))
	for _, r := range rows {
		examples = append(examples, scoring.Example{
			Text:     r.Text,
			Positive: scoring.Decision(r.GoldLabel) == scoring.DecisionBlock,
		})
	}
	return examples, counter, nil
}

func (s *TrainingService) train(ctx context.Context, activate bool) (*models.ModelVersion, error) {
	examples, counted, err := s.snapshot(ctx)
	if err != nil {
		s.metrics.RecordRetrain("failed")
		return nil, err
	}
	if len(examples) < MinTrainingSamples {
		s.metrics.RecordRetrain("insufficient")
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughTrainingData, len(examples), MinTrainingSamples)
	}

	model, m, err := s.trainer(examples)
	if err != nil {
		s.metrics.RecordRetrain("failed")
		return nil, fmt.Errorf("train: %w", err)
	}
	m = m.Sanitized()

	db := s.db.WithContext(ctx)
	var maxVersion int
	if err := db.Model(&models.ModelVersion{}).Select("COALESCE(MAX(version), 0)").Scan(&maxVersion).Error; err != nil {
		s.metrics.RecordRetrain("failed")
		return nil, fmt.Errorf("next version: %w", err)
	}
	next := maxVersion + 1

	path := filepath.Join(s.modelDir, fmt.Sprintf("model_v%d.msgpack", next))
	if err := model.Save(path); err != nil {
		s.metrics.RecordRetrain("failed")
		return nil, fmt.Errorf("save model v%d: %w", next, err)
	}

	now := time.Now()
	version := &models.ModelVersion{
		Version:             next,
		Accuracy:            m.Accuracy,
		Precision:           m.Precision,
		Recall:              m.Recall,
		F1Score:             m.F1,
		IsActive:            activate,
		ModelPath:           path,
		TrainingSampleCount: len(examples),
		TrainedAt:           now,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if activate {
			if err := tx.Model(&models.ModelVersion{}).Where("is_active = ?", true).Update("is_active", false).Error; err != nil {
				return fmt.Errorf("deactivate versions: %w", err)
			}
		}
		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		// labels that arrived while training stay counted
		return tx.Model(&models.SystemSettings{}).Where("1 = 1").Updates(map[string]interface{}{
			"new_gold_since_last_train": gorm.Expr("CASE WHEN new_gold_since_last_train > ? THEN new_gold_since_last_train - ? ELSE 0 END", counted, counted),
			"last_retrain_date":         now,
		}).Error
	})
	if err != nil {
		_ = os.Remove(path)
		s.metrics.RecordRetrain("failed")
		return nil, err
	}

	if activate {
		s.classifier.Swap(model, next)
		s.syncedVersion = next
		s.metrics.SetActiveModel(next)
		LogInfo("model", "activate", fmt.Sprintf("Model v%d trained and activated", next), nil, "", version)
	}
	s.metrics.RecordRetrain("trained")
	logger.Infof("[Retrain] Trained v%d on %d labels (accuracy=%.3f f1=%.3f, active=%v)",
		next, len(examples), m.Accuracy, m.F1, activate)
	return version, nil
}

// Activate makes an existing version the live classifier
func (s *TrainingService) Activate(ctx context.Context, version int) (*models.ModelVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.WithContext(ctx)
	var mv models.ModelVersion
	if err := db.Where("version = ?", version).First(&mv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelVersionNotFound
		}
		return nil, err
	}

	model, err := s.loader(mv.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model v%d: %w", version, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ModelVersion{}).Where("is_active = ? AND id <> ?", true, mv.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&mv).Update("is_active", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("activate v%d: %w", version, err)
	}

	s.classifier.Swap(model, mv.Version)
	s.syncedVersion = mv.Version
	s.metrics.SetActiveModel(mv.Version)
	LogInfo("model", "activate", fmt.Sprintf("Model v%d activated", mv.Version), nil, "", mv)
	return &mv, nil
}

// LoadActive loads the active version into the live classifier. A missing version or blob
// leaves the classifier empty and is not an error.
func (s *TrainingService) LoadActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mv, err := s.ActiveVersion(ctx)
	if err != nil {
		return err
	}
	return s.loadActive(mv)
}

// SyncActive reloads the classifier when the active version in the database differs from
// the one this process last applied, which happens when another process activated a model.
// It does nothing while a training run holds the lock and reports whether it reloaded.
func (s *TrainingService) SyncActive(ctx context.Context) (bool, error) {
	if !s.mu.TryLock() {
		return false, nil
	}
	defer s.mu.Unlock()

	mv, err := s.ActiveVersion(ctx)
	if err != nil {
		return false, err
	}
	want := 0
	if mv != nil {
		want = mv.Version
	}
	if want == s.classifier.Handle().Version() || want == s.syncedVersion {
		return false, nil
	}
	if err := s.loadActive(mv); err != nil {
		return false, err
	}
	return true, nil
}

func (s *TrainingService) loadActive(mv *models.ModelVersion) error {
	if mv == nil {
		s.syncedVersion = 0
		s.classifier.Unload()
		s.metrics.SetActiveModel(0)
		logger.Infof("[Retrain] No active model, scoring is lexicon-only")
		return nil
	}
	if _, err := os.Stat(mv.ModelPath); errors.Is(err, os.ErrNotExist) {
		s.syncedVersion = mv.Version
		s.classifier.Unload()
		s.metrics.SetActiveModel(0)
		logger.Warnf("[Retrain] Active model v%d missing at %s, scoring is lexicon-only", mv.Version, mv.ModelPath)
		return nil
	}

	// a failed load is not retried until the active version changes again
	s.syncedVersion = mv.Version
	model, err := s.loader(mv.ModelPath)
	if err != nil {
		return fmt.Errorf("load model v%d: %w", mv.Version, err)
	}
	s.classifier.Swap(model, mv.Version)
	s.metrics.SetActiveModel(mv.Version)
	logger.Infof("[Retrain] Loaded model v%d from %s", mv.Version, mv.ModelPath)
	return nil
}

// ActiveVersion returns the active version, nil when none is active
func (s *TrainingService) ActiveVersion(ctx context.Context) (*models.ModelVersion, error) {
	var mv models.ModelVersion
	res := s.db.WithContext(ctx).Where("is_active = ?", true).Order("version DESC").Limit(1).Find(&mv)
	if res.Error != nil {
		return nil, fmt.Errorf("load active version: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &mv, nil
}

func (s *TrainingService) ListVersions(ctx context.Context) ([]models.ModelVersion, error) {
	var versions []models.ModelVersion
	if err := s.db.WithContext(ctx).Order("version DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *TrainingService) Status(ctx context.Context) (*ModelStatus, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.ActiveVersion(ctx)
	if err != nil {
		return nil, err
	}
	h := s.classifier.Handle()
	_, loaded := h.Loaded()
	return &ModelStatus{
		Loaded:                loaded,
		LoadedVersion:         h.Version(),
		Active:                active,
		NewGoldSinceLastTrain: settings.NewGoldSinceLastTrain,
		RetrainThreshold:      settings.RetrainThreshold,
		RetrainingEnabled:     settings.RetrainingEnabled,
		LastRetrainDate:       settings.LastRetrainDate,
	}, nil
}

// ProcessRetrainTask is the TaskProcessor for retrain triggers. Too few labels is not a task failure.
func (s *TrainingService) ProcessRetrainTask(ctx context.Context, task *RetrainTask) error {
	version, err := s.RetrainIfNeeded(ctx)
	if errors.Is(err, ErrNotEnoughTrainingData) {
		logger.Infof("[Retrain] Task %s (%s): %v", task.ID, task.Reason, err)
		return nil
	}
	if err != nil {
		return err
	}
	if version != nil {
		logger.Infof("[Retrain] Task %s (%s) activated v%d", task.ID, task.Reason, version.Version)
	}
	return nil
}
