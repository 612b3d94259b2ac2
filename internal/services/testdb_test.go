package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

// testEnv wires the services the way the server does, on an in-memory database
type testEnv struct {
	db         *gorm.DB
	metrics    *metrics.ModerationMetrics
	settings   *SettingsService
	queue      *QueueService
	wordlist   *WordlistService
	contexts   *ContextService
	classifier *scoring.Classifier
	scorer     *ScoringService
	training   *TrainingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	m, err := metrics.NewModerationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	env := &testEnv{db: db, metrics: m}
	env.settings = NewSettingsService(db)
	env.queue = NewQueueService(db)
	env.wordlist = NewWordlistService(db)
	env.contexts = NewContextService(db)
	env.classifier = scoring.NewClassifier()
	env.scorer = NewScoringService(db, env.settings, env.wordlist, env.contexts, env.classifier, scoring.DefaultBoostRules(), m)
	env.training = NewTrainingService(db, env.settings, env.classifier, t.TempDir(), m)
	return env
}

func (e *testEnv) author(t *testing.T, username string, reputation, ageDays, violations int) *models.Author {
	t.Helper()
	a := &models.Author{
		Username:           username,
		ReputationScore:    reputation,
		AccountAgeDays:     ageDays,
		PreviousViolations: violations,
	}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

// enqueue stores a queued content item, created offset after a fixed base time to fix FIFO order
func (e *testEnv) enqueue(t *testing.T, a *models.Author, text string, offset time.Duration) *models.Content {
	t.Helper()
	c := &models.Content{
		Type:      models.ContentTypeComment,
		Text:      text,
		AuthorID:  a.ID,
		Status:    models.ContentStatusQueued,
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).Add(offset),
	}
	require.NoError(t, e.db.Create(c).Error)
	return c
}

func (e *testEnv) status(t *testing.T, id uint) string {
	t.Helper()
	var c models.Content
	require.NoError(t, e.db.First(&c, id).Error)
	return c.Status
}

// fixedContext pins the clock of the context service to a daytime hour
func (e *testEnv) fixedContext(hour int) {
	e.contexts.now = func() time.Time { return time.Date(2026, 3, 4, hour, 0, 0, 0, time.UTC) }
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// stubClassifierModel returns a fixed probability or error
type stubClassifierModel struct {
	p   float64
	err error
}

func (m stubClassifierModel) Predict(string) (float64, error) { return m.p, m.err }
func (m stubClassifierModel) Save(string) error               { return nil }
