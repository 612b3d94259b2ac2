package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSeed_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	var settingsCount, authorCount, contentCount, wordCount int64
	db.Model(&SystemSettings{}).Count(&settingsCount)
	db.Model(&Author{}).Count(&authorCount)
	db.Model(&Content{}).Count(&contentCount)
	db.Model(&BlockedWord{}).Count(&wordCount)

	assert.Equal(t, int64(1), settingsCount)
	assert.Equal(t, int64(3), authorCount)
	assert.Equal(t, int64(6), contentCount)
	assert.Positive(t, wordCount)

	var problematic Author
	require.NoError(t, db.Where("username = ?", "problematic_user").First(&problematic).Error)
	assert.Equal(t, 20, problematic.ReputationScore)
	assert.Equal(t, 3, problematic.PreviousViolations)

	var settings SystemSettings
	require.NoError(t, db.First(&settings).Error)
	assert.Equal(t, scoring.DefaultThresholds(), settings.Thresholds())
	assert.True(t, settings.RetrainingEnabled)
	assert.Equal(t, DefaultRetrainThreshold, settings.RetrainThreshold)
}

func TestSystemSettings_ShouldRetrain(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		counter  int
		expected bool
	}{
		{"disabled with many labels", false, 100, false},
		{"enabled below threshold", true, 9, false},
		{"enabled at threshold", true, 10, true},
		{"enabled above threshold", true, 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSystemSettings()
			s.RetrainingEnabled = tt.enabled
			s.NewGoldSinceLastTrain = tt.counter
			assert.Equal(t, tt.expected, s.ShouldRetrain())
		})
	}
}

func TestStatusForDecision(t *testing.T) {
	assert.Equal(t, ContentStatusApproved, StatusForDecision(scoring.DecisionAllow))
	assert.Equal(t, ContentStatusPendingReview, StatusForDecision(scoring.DecisionReview))
	assert.Equal(t, ContentStatusBlocked, StatusForDecision(scoring.DecisionBlock))
}

func TestContentImage_Classification(t *testing.T) {
	var img *ContentImage
	assert.Nil(t, img.Classification())

	assert.Nil(t, (&ContentImage{Label: "dog"}).Classification(), "unclassified image has no label")
}

func TestContentContext_RoundTrip(t *testing.T) {
	snap := scoring.ContentContext{AuthorReputation: 0.4, EngagementLevel: 0.5, TimeOfDay: 3, DayOfWeek: 2, Language: "en", ContentLength: 12}
	row := NewContentContext(7, snap)
	assert.Equal(t, uint(7), row.ContentID)
	assert.Equal(t, snap, row.Snapshot())
}
