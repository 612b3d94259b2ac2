package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/pkg/logger"
)

// Worker processes retrain tasks from the Redis queue
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor TaskProcessor
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker returns nil when Redis is disabled
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			// retraining is serialized anyway
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Errorf("[Worker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

func (w *Worker) SetProcessor(processor TaskProcessor) {
	w.processor = processor
}

func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeRetrain, w.handleRetrainTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[Worker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[Worker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[Worker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[Worker] Shutdown complete")
}

func (w *Worker) handleRetrainTask(ctx context.Context, t *asynq.Task) error {
	var task RetrainTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Errorf("[Worker] Failed to unmarshal task: %v", err)
		return err
	}

	logger.Infof("[Worker] Processing retrain task: id=%s, reason=%s, review_id=%d", task.ID, task.Reason, task.ReviewID)

	if w.processor == nil {
		logger.Warnf("[Worker] No processor set")
		return nil
	}

	return w.processor(ctx, &task)
}
