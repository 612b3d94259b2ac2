package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/handlers"
	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/internal/utils"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg         *config.Config
	metrics     *metrics.ModerationMetrics
	sseHub      *services.SSEHub
	taskQueue   services.TaskQueue
	worker      *services.Worker
	scheduler   *services.Scheduler
	runner      *services.ModerationRunner
	redisClient *redis.Client

	authHandler      *handlers.AuthHandler
	contentHandler   *handlers.ContentHandler
	reviewHandler    *handlers.ReviewHandler
	settingsHandler  *handlers.SettingsHandler
	wordlistHandler  *handlers.WordlistHandler
	modelHandler     *handlers.ModelHandler
	sseHandler       *handlers.SSEHandler
	healthHandler    *handlers.HealthHandler
	systemLogHandler *handlers.SystemLogHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(ctx context.Context, cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Sentry")
		}
	}

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}
	db := models.GetDB()

	services.InitSystemLogger(db)

	m, err := metrics.NewModerationMetrics(prometheus.NewRegistry())
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	// Core services
	settings := services.NewSettingsService(db)
	queue := services.NewQueueService(db)
	wordlist := services.NewWordlistService(db)
	contexts := services.NewContextService(db)
	classifier := scoring.NewClassifier()
	training := services.NewTrainingService(db, settings, classifier, cfg.Moderation.ModelDir, m)
	if err := training.LoadActive(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to load active model, scoring is lexicon-only")
	}

	// an explicit empty list disables image boosting; defaults come from config.DefaultConfig
	scorer := services.NewScoringService(db, settings, wordlist, contexts, classifier, cfg.Moderation.ImageBoostRules, m)

	var images scoring.ImageClassifier
	if cfg.Moderation.ImageClassifierURL != "" {
		images = services.NewHTTPImageClassifier(cfg.Moderation.ImageClassifierURL)
	}
	content := services.NewContentService(db, images)

	// Result delivery: log and SSE always, Redis pub/sub when enabled
	hub := services.NewSSEHub()
	sinks := []services.Notifier{services.LogNotifier{}, services.SSENotifier{Hub: hub}}
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.ResultChannel != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sinks = append(sinks, services.NewRedisNotifier(redisClient, cfg.Redis.ResultChannel))
	}
	notifier := services.NewMultiNotifier(m, sinks...)

	// Retrain triggers (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(training.ProcessRetrainTask)
	}
	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(training.ProcessRetrainTask)
			if err := worker.Start(); err != nil {
				logger.Warn().Err(err).Msg("Failed to start retrain worker")
			}
		}
	}

	reviews := services.NewReviewService(db, settings, taskQueue, notifier, m, cfg.Moderation.ImmediateRetrain)
	thresholds := services.NewThresholdService(db, settings, cfg.Moderation.ClampThresholds, m)
	systemLogs := services.NewSystemLogService(db)

	// Scheduled loops
	scheduler := services.NewScheduler(db, m)
	jobs := []services.Job{
		services.ThresholdJob(thresholds, cfg.Moderation.ThresholdSchedule),
		services.RetrainJob(training, cfg.Moderation.RetrainSchedule),
	}
	if cfg.Log.RetentionDays > 0 {
		jobs = append(jobs, services.LogCleanupJob(systemLogs, cfg.Log.RetentionDays))
	}
	for _, job := range jobs {
		if err := scheduler.Add(job); err != nil {
			logger.Fatalf("Failed to schedule job: %v", err)
		}
	}
	scheduler.Start()

	runner := services.NewModerationRunner(queue, scorer, notifier, m, cfg.Moderation)
	runner.SetModelSync(training)

	auth := services.NewAuthService(db, &cfg.JWT)
	if err := auth.EnsureDefaultAdmin(ctx, cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin moderator")
	}

	return &appServices{
		cfg:         cfg,
		metrics:     m,
		sseHub:      hub,
		taskQueue:   taskQueue,
		worker:      worker,
		scheduler:   scheduler,
		runner:      runner,
		redisClient: redisClient,

		authHandler:      handlers.NewAuthHandler(auth),
		contentHandler:   handlers.NewContentHandler(content, queue, cfg.Moderation.StuckTimeout),
		reviewHandler:    handlers.NewReviewHandler(reviews),
		settingsHandler:  handlers.NewSettingsHandler(settings, thresholds),
		wordlistHandler:  handlers.NewWordlistHandler(wordlist),
		modelHandler:     handlers.NewModelHandler(training, taskQueue),
		sseHandler:       handlers.NewSSEHandler(hub),
		healthHandler:    handlers.NewHealthHandler(db, queue, taskQueue, hub),
		systemLogHandler: handlers.NewSystemLogHandler(systemLogs, cfg.Log.RetentionDays),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	sentry.Flush(2 * time.Second)
}
