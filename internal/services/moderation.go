package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/pkg/logger"
)

const moderationLoop = "moderation"

// activeModelSyncer reloads the classifier when another process activated a different version
type activeModelSyncer interface {
	SyncActive(ctx context.Context) (bool, error)
}

// ModerationRunner is the queue/worker cycle: one dequeue and one scoring pass per tick
type ModerationRunner struct {
	queue    *QueueService
	scorer   *ScoringService
	notifier Notifier
	metrics  *metrics.ModerationMetrics
	models   activeModelSyncer

	pollInterval   time.Duration
	idleBackoffMax time.Duration
	errorBackoff   time.Duration
}

func NewModerationRunner(queue *QueueService, scorer *ScoringService, notifier Notifier, m *metrics.ModerationMetrics, cfg config.ModerationConfig) *ModerationRunner {
	r := &ModerationRunner{
		queue:          queue,
		scorer:         scorer,
		notifier:       notifier,
		metrics:        m,
		pollInterval:   cfg.PollInterval,
		idleBackoffMax: cfg.IdleBackoffMax,
		errorBackoff:   cfg.ErrorBackoff,
	}
	if r.pollInterval <= 0 {
		r.pollInterval = 500 * time.Millisecond
	}
	if r.idleBackoffMax < r.pollInterval {
		r.idleBackoffMax = r.pollInterval
	}
	if r.errorBackoff <= 0 {
		r.errorBackoff = 5 * time.Second
	}
	return r
}

// SetModelSync makes every tick pick up model activations made outside this process
func (r *ModerationRunner) SetModelSync(m activeModelSyncer) {
	r.models = m
}

// Tick claims one queued item and scores it. It returns nil, nil when the queue is empty.
// On error the claimed item stays Processing until a stuck-item reset.
func (r *ModerationRunner) Tick(ctx context.Context) (*ScoreOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.syncModel(ctx)
	content, err := r.queue.DequeueNextQueued(ctx)
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	if content == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := r.scorer.ScoreAndDecide(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("score content %d: %w", content.ID, err)
	}

	if r.notifier != nil {
		result := ModerationResult{
			ContentID:    content.ID,
			PredictionID: out.Prediction.ID,
			Decision:     out.Prediction.Decision,
			Confidence:   out.Prediction.Confidence,
			FinalScore:   out.Prediction.FinalScore,
			Status:       out.Status,
			Source:       "worker",
			Timestamp:    out.Prediction.CreatedAt,
		}
		if err := r.notifier.Notify(ctx, result); err != nil {
			logger.Warnf("[Moderation] Notify failed for content %d: %v", content.ID, err)
		}
	}
	return out, nil
}

// Run ticks until ctx is cancelled. A failing item never stops the loop.
func (r *ModerationRunner) Run(ctx context.Context) {
	logger.Infof("[Moderation] Worker started, poll interval %v", r.pollInterval)
	defer logger.Infof("[Moderation] Worker stopped")

	idle := r.pollInterval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		out, err := r.Tick(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if errors.Is(err, ErrClaimLost) {
				logger.Warnf("[Moderation] %v, result discarded", err)
				wait = r.pollInterval
				idle = r.pollInterval
				break
			}
			r.metrics.RecordTickError(moderationLoop)
			reportLoopError(moderationLoop, err)
			logger.Errorf("[Moderation] Tick failed, backing off %v: %v", r.errorBackoff, err)
			wait = r.errorBackoff
			idle = r.pollInterval
		case out == nil:
			if idle == r.pollInterval {
				r.sampleQueueDepth(ctx)
			}
			wait = idle
			idle *= 2
			if idle > r.idleBackoffMax {
				idle = r.idleBackoffMax
			}
		default:
			wait = r.pollInterval
			idle = r.pollInterval
		}
		timer.Reset(wait)
	}
}

func (r *ModerationRunner) syncModel(ctx context.Context) {
	if r.models == nil {
		return
	}
	reloaded, err := r.models.SyncActive(ctx)
	if err != nil {
		logger.Warnf("[Moderation] Model sync failed, keeping current classifier: %v", err)
		return
	}
	if reloaded {
		logger.Infof("[Moderation] Picked up externally activated model")
	}
}

func (r *ModerationRunner) sampleQueueDepth(ctx context.Context) {
	if r.metrics == nil {
		return
	}
	counts, err := r.queue.Counts(ctx)
	if err != nil {
		logger.Debugf("[Moderation] Queue depth sample failed: %v", err)
		return
	}
	for _, status := range []string{models.ContentStatusQueued, models.ContentStatusProcessing, models.ContentStatusPendingReview} {
		r.metrics.SetQueueDepth(status, counts[status])
	}
}

// reportLoopError sends a loop failure to Sentry. It is a no-op when Sentry was not initialized.
func reportLoopError(loop string, err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("loop", loop)
		sentry.CaptureException(err)
	})
}
