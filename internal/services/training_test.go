package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedGold labels n spam items as block and n clean items as allow
func seedGold(t *testing.T, env *testEnv, n int) {
	t.Helper()
	rs := NewReviewService(env.db, env.settings, nil, nil, env.metrics, false)
	a, err := findOrCreateAuthor(env.db, "trainer")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		env.label(t, rs, a, "buy now cheap pills free money", scoring.DecisionBlock)
		env.label(t, rs, a, "thanks for sharing the recipe", scoring.DecisionAllow)
	}
}

func TestTrain_NotEnoughData(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 4)

	_, err := env.training.Train(ctxT(t), true)
	assert.ErrorIs(t, err, ErrNotEnoughTrainingData)
	assert.False(t, env.classifier.IsLoaded())

	versions, err := env.training.ListVersions(ctxT(t))
	require.NoError(t, err)
	assert.Empty(t, versions)
	assert.Equal(t, 8, env.goldCounter(t), "a failed run keeps the counter")

	// a retrain task with too little data is not a task failure
	_, err = env.settings.UpdateRetrainThreshold(ctxT(t), 5)
	require.NoError(t, err)
	assert.NoError(t, env.training.ProcessRetrainTask(ctxT(t), NewRetrainTask("test", 0)))
}

func TestRetrainIfNeeded(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 3)

	v, err := env.training.RetrainIfNeeded(ctxT(t))
	require.NoError(t, err)
	assert.Nil(t, v, "below the retrain threshold nothing is trained")

	seedGold(t, env, 3)
	require.Equal(t, 12, env.goldCounter(t))

	v, err = env.training.RetrainIfNeeded(ctxT(t))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 1, v.Version)
	assert.True(t, v.IsActive)
	assert.Equal(t, 12, v.TrainingSampleCount)
	assert.FileExists(t, v.ModelPath)
	assert.Equal(t, "model_v1.msgpack", filepath.Base(v.ModelPath))

	h := env.classifier.Handle()
	model, ok := h.Loaded()
	require.True(t, ok)
	assert.Equal(t, 1, h.Version())
	p, err := model.Predict("free money pills")
	require.NoError(t, err)
	assert.Greater(t, p, 0.5)

	settings, err := env.settings.Get(ctxT(t))
	require.NoError(t, err)
	assert.Equal(t, 0, settings.NewGoldSinceLastTrain)
	assert.NotNil(t, settings.LastRetrainDate)
}

func TestTrain_KeepsLabelsArrivingDuringTraining(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 5)

	rs := NewReviewService(env.db, env.settings, nil, nil, env.metrics, false)
	a := env.author(t, "late", 50, 10, 0)
	env.training.trainer = func(examples []scoring.Example) (scoring.Model, scoring.Metrics, error) {
		// a moderator labels two more items while the model is fitted
		env.label(t, rs, a, "late one", scoring.DecisionAllow)
		env.label(t, rs, a, "late two", scoring.DecisionBlock)
		return naiveBayesTrainer(examples)
	}

	v, err := env.training.Train(ctxT(t), true)
	require.NoError(t, err)
	assert.Equal(t, 10, v.TrainingSampleCount)
	assert.Equal(t, 2, env.goldCounter(t))
}

func TestTrain_WithoutActivation(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 5)

	first, err := env.training.Train(ctxT(t), true)
	require.NoError(t, err)
	second, err := env.training.Train(ctxT(t), false)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	assert.False(t, second.IsActive)
	assert.Equal(t, first.Version, env.classifier.Handle().Version())

	active, err := env.training.ActiveVersion(ctxT(t))
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 1, active.Version)

	mv, err := env.training.Activate(ctxT(t), 2)
	require.NoError(t, err)
	assert.True(t, mv.IsActive)
	assert.Equal(t, 2, env.classifier.Handle().Version())

	versions, err := env.training.ListVersions(ctxT(t))
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.True(t, versions[0].IsActive)
	assert.False(t, versions[1].IsActive)

	_, err = env.training.Activate(ctxT(t), 42)
	assert.ErrorIs(t, err, ErrModelVersionNotFound)
}

func TestLoadActive(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.training.LoadActive(ctxT(t)))
	assert.False(t, env.classifier.IsLoaded(), "no active version")

	seedGold(t, env, 5)
	v, err := env.training.Train(ctxT(t), true)
	require.NoError(t, err)

	// a fresh process picks the active version up from disk
	restarted := scoring.NewClassifier()
	svc := NewTrainingService(env.db, env.settings, restarted, filepath.Dir(v.ModelPath), env.metrics)
	require.NoError(t, svc.LoadActive(ctxT(t)))
	assert.True(t, restarted.IsLoaded())
	assert.Equal(t, 1, restarted.Handle().Version())

	status, err := svc.Status(ctxT(t))
	require.NoError(t, err)
	assert.True(t, status.Loaded)
	assert.Equal(t, 1, status.LoadedVersion)
	require.NotNil(t, status.Active)
	assert.Equal(t, 1, status.Active.Version)

	// a missing blob degrades to lexicon-only scoring
	require.NoError(t, os.Remove(v.ModelPath))
	require.NoError(t, svc.LoadActive(ctxT(t)))
	assert.False(t, restarted.IsLoaded())
}

func TestSyncActive_FollowsActivationsFromAnotherProcess(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 5)
	other := NewTrainingService(env.db, env.settings, scoring.NewClassifier(), t.TempDir(), env.metrics)

	reloaded, err := env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.False(t, reloaded, "nothing active yet")

	v1, err := other.Train(ctxT(t), true)
	require.NoError(t, err)
	reloaded, err = env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, v1.Version, env.classifier.Handle().Version())

	reloaded, err = env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.False(t, reloaded, "an unchanged active version is not reloaded")

	v2, err := other.Train(ctxT(t), true)
	require.NoError(t, err)
	reloaded, err = env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, v2.Version, env.classifier.Handle().Version())

	// a blob missing on this host unloads once and is then left alone
	v3, err := other.Train(ctxT(t), true)
	require.NoError(t, err)
	require.NoError(t, os.Remove(v3.ModelPath))
	reloaded, err = env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.False(t, env.classifier.IsLoaded())
	reloaded, err = env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func TestSyncActive_LocalActivationIsNotReloaded(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 5)

	_, err := env.training.Train(ctxT(t), true)
	require.NoError(t, err)
	reloaded, err := env.training.SyncActive(ctxT(t))
	require.NoError(t, err)
	assert.False(t, reloaded)
	assert.Equal(t, 1, env.classifier.Handle().Version())
}

func TestLoadActive_CorruptBlob(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "model_v1.msgpack")
	require.NoError(t, os.WriteFile(path, []byte("not msgpack"), 0o644))
	require.NoError(t, env.db.Create(&models.ModelVersion{Version: 1, IsActive: true, ModelPath: path}).Error)

	err := env.training.LoadActive(ctxT(t))
	assert.Error(t, err)
	assert.False(t, env.classifier.IsLoaded())
}

func TestProcessRetrainTask_RespectsDisabledRetraining(t *testing.T) {
	env := newTestEnv(t)
	seedGold(t, env, 5)
	_, err := env.settings.SetRetrainingEnabled(context.Background(), false)
	require.NoError(t, err)

	require.NoError(t, env.training.ProcessRetrainTask(ctxT(t), NewRetrainTask("test", 0)))
	assert.False(t, env.classifier.IsLoaded())
	assert.Equal(t, 10, env.goldCounter(t))
}
