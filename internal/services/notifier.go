package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangang/modsentry/backend/internal/metrics"
	"github.com/huangang/modsentry/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ModerationResult is emitted after every successful scoring pass and after a gold label changes the status
type ModerationResult struct {
	ContentID    uint      `json:"content_id"`
	PredictionID uint      `json:"prediction_id,omitempty"`
	Decision     string    `json:"decision"`
	Confidence   string    `json:"confidence,omitempty"`
	FinalScore   float64   `json:"final_score"`
	Status       string    `json:"status"`
	Source       string    `json:"source"` // worker or review
	Timestamp    time.Time `json:"timestamp"`
}

// Notifier delivers moderation results to one transport
type Notifier interface {
	Notify(ctx context.Context, result ModerationResult) error
	Name() string
}

// MultiNotifier fans a result out to every sink. A failing sink does not stop the others.
type MultiNotifier struct {
	sinks   []Notifier
	metrics *metrics.ModerationMetrics
}

func NewMultiNotifier(m *metrics.ModerationMetrics, sinks ...Notifier) *MultiNotifier {
	return &MultiNotifier{sinks: sinks, metrics: m}
}

func (n *MultiNotifier) Name() string { return "multi" }

// Notify sends to all sinks and joins their errors
func (n *MultiNotifier) Notify(ctx context.Context, result ModerationResult) error {
	var errs []error
	for _, s := range n.sinks {
		if err := s.Notify(ctx, result); err != nil {
			n.metrics.RecordNotifyFailure(s.Name())
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes results to the application log
type LogNotifier struct{}

func (LogNotifier) Name() string { return "log" }

func (LogNotifier) Notify(_ context.Context, r ModerationResult) error {
	logger.Info().
		Uint("content_id", r.ContentID).
		Str("decision", r.Decision).
		Float64("final_score", r.FinalScore).
		Str("status", r.Status).
		Str("source", r.Source).
		Msg("[Moderation] Result")
	return nil
}

// SSENotifier pushes results to connected SSE clients
type SSENotifier struct {
	Hub *SSEHub
}

func (SSENotifier) Name() string { return "sse" }

func (n SSENotifier) Notify(_ context.Context, r ModerationResult) error {
	n.Hub.Publish(r)
	return nil
}

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes JSON results on a Redis pub/sub channel
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

func NewRedisNotifier(client redisPublisher, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Name() string { return "redis" }

func (n *RedisNotifier) Notify(ctx context.Context, r ModerationResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.channel, err)
	}
	return nil
}
