package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/huangang/modsentry/backend/internal/config"
	"github.com/huangang/modsentry/backend/pkg/logger"
)

const (
	TaskTypeRetrain = "moderation:retrain"
)

// RetrainTask asks the worker to retrain if the gold-label counter crossed its threshold
type RetrainTask struct {
	ID       string `json:"id"`
	Reason   string `json:"reason"` // gold_label, manual
	ReviewID uint   `json:"review_id,omitempty"`
}

// NewRetrainTask returns a task with a fresh id
func NewRetrainTask(reason string, reviewID uint) *RetrainTask {
	return &RetrainTask{ID: uuid.NewString(), Reason: reason, ReviewID: reviewID}
}

// TaskProcessor handles one retrain task
type TaskProcessor func(context.Context, *RetrainTask) error

// TaskQueue defines the interface for retrain trigger processing
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *RetrainTask) error
	// IsAsync returns true if queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue returns the Redis queue when Redis is enabled and reachable, the sync queue otherwise
func NewTaskQueue(cfg *config.RedisConfig) TaskQueue {
	if !cfg.Enabled {
		logger.Infof("[TaskQueue] Sync queue initialized (Redis disabled)")
		return NewSyncQueue()
	}
	queue, err := NewAsyncQueue(cfg)
	if err != nil {
		logger.Infof("[TaskQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncQueue()
	}
	logger.Infof("[TaskQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncQueue implements TaskQueue using asynq (Redis-based)
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := redisClientOpt(cfg)
	client := asynq.NewClient(redisOpt)

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

// Enqueue adds a retrain task. A burst of tasks is harmless: the handler re-checks the counter.
func (q *AsyncQueue) Enqueue(task *RetrainTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeRetrain, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.TaskID(task.ID),
	)
	if err != nil {
		return err
	}

	logger.Infof("[AsyncQueue] Task enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncQueue) IsAsync() bool {
	return true
}

func (q *AsyncQueue) Close() error {
	return q.client.Close()
}

// SyncQueue implements TaskQueue in-process (no Redis)
type SyncQueue struct {
	mu        sync.RWMutex
	processor TaskProcessor
	wg        sync.WaitGroup
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that handles tasks
func (q *SyncQueue) SetProcessor(processor TaskProcessor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processor = processor
}

// Enqueue runs the task in a goroutine so the caller's request is not blocked
func (q *SyncQueue) Enqueue(task *RetrainTask) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warnf("[SyncQueue] No processor set, task %s dropped", task.ID)
		return nil
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := processor(context.Background(), task); err != nil {
			logger.Infof("[SyncQueue] Task processing failed: %v", err)
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool {
	return false
}

// Close waits for running tasks
func (q *SyncQueue) Close() error {
	q.wg.Wait()
	return nil
}
