package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Job is a periodic task. Only one server instance runs a job at a time.
type Job struct {
	Name string
	Spec string
	// TTL bounds how long a crashed holder keeps the lock
	TTL time.Duration
	Run func(ctx context.Context) error
}

// Scheduler runs jobs on cron specs behind a scheduler_locks row per job
type Scheduler struct {
	db      *gorm.DB
	holder  string
	cron    *cron.Cron
	metrics *metrics.ModerationMetrics

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	jobs   []string
}

func NewScheduler(db *gorm.DB, m *metrics.ModerationMetrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		db:      db,
		holder:  uuid.NewString(),
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers a job. It fails on an invalid cron spec.
func (s *Scheduler) Add(job Job) error {
	if job.TTL <= 0 {
		job.TTL = 10 * time.Minute
	}
	if _, err := s.cron.AddFunc(job.Spec, func() { s.RunJob(job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job.Name)
	s.mu.Unlock()
	logger.Infof("[Scheduler] %s scheduled (%s)", job.Name, job.Spec)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Infof("[Scheduler] Started, holder %s", s.holder)
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	logger.Infof("[Scheduler] Stopped")
}

// RunJob runs job once if this instance can take its lock
func (s *Scheduler) RunJob(job Job) {
	ctx := s.ctx
	ok, err := s.acquire(ctx, job.Name, job.TTL)
	if err != nil {
		logger.Errorf("[Scheduler] Lock %s failed: %v", job.Name, err)
		return
	}
	if !ok {
		logger.Debugf("[Scheduler] %s is held by another instance", job.Name)
		return
	}
	defer s.release(job.Name)

	err = job.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case errors.Is(err, ErrNotEnoughTrainingData):
		logger.Infof("[Scheduler] %s: %v, retrying next cycle", job.Name, err)
	default:
		s.metrics.RecordTickError(job.Name)
		reportLoopError(job.Name, err)
		logger.Errorf("[Scheduler] %s failed: %v", job.Name, err)
	}
}

func (s *Scheduler) acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	db := s.db.WithContext(ctx)
	now := time.Now()

	var lock models.SchedulerLock
	err := db.Where("job_name = ?", name).First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lock = models.SchedulerLock{JobName: name, Holder: s.holder, LockedAt: now, ExpiresAt: now.Add(ttl)}
		if err := db.Create(&lock).Error; err != nil {
			// lost the race to create the row
			return false, nil
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	res := db.Model(&models.SchedulerLock{}).
		Where("id = ? AND (holder = ? OR expires_at <= ?)", lock.ID, s.holder, now).
		Updates(map[string]interface{}{
			"holder":     s.holder,
			"locked_at":  now,
			"expires_at": now.Add(ttl),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Scheduler) release(name string) {
	err := s.db.Model(&models.SchedulerLock{}).
		Where("job_name = ? AND holder = ?", name, s.holder).
		Update("expires_at", time.Now()).Error
	if err != nil {
		logger.Warnf("[Scheduler] Release %s failed: %v", name, err)
	}
}

// ThresholdJob runs the threshold adaptation loop
func ThresholdJob(svc *ThresholdService, spec string) Job {
	return Job{
		Name: "threshold-update",
		Spec: spec,
		Run: func(ctx context.Context) error {
			_, err := svc.Update(ctx)
			return err
		},
	}
}

// RetrainJob runs the retraining loop
func RetrainJob(svc *TrainingService, spec string) Job {
	return Job{
		Name: "retrain",
		Spec: spec,
		TTL:  30 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := svc.RetrainIfNeeded(ctx)
			return err
		},
	}
}

// LogCleanupJob deletes audit entries older than retentionDays
func LogCleanupJob(svc *SystemLogService, retentionDays int) Job {
	return Job{
		Name: "log-cleanup",
		Spec: "@daily",
		Run: func(ctx context.Context) error {
			_, err := svc.CleanupOldLogs(ctx, retentionDays)
			return err
		},
	}
}
