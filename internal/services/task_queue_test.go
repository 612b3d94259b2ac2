package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/huangang/modsentry/backend/internal/config"
)

func TestTaskTypeRetrain_Constant(t *testing.T) {
	if TaskTypeRetrain != "moderation:retrain" {
		t.Errorf("TaskTypeRetrain = %q, expected %q", TaskTypeRetrain, "moderation:retrain")
	}
}

func TestNewRetrainTask(t *testing.T) {
	a := NewRetrainTask("gold_label", 12)
	b := NewRetrainTask("gold_label", 12)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("task ids should be unique and non-empty, got %q and %q", a.ID, b.ID)
	}
	if a.Reason != "gold_label" || a.ReviewID != 12 {
		t.Errorf("unexpected task %+v", a)
	}
}

func TestNewTaskQueue_RedisDisabled(t *testing.T) {
	q := NewTaskQueue(&config.RedisConfig{Enabled: false})
	if q.IsAsync() {
		t.Error("queue should be synchronous when Redis is disabled")
	}
	if _, ok := q.(*SyncQueue); !ok {
		t.Errorf("expected *SyncQueue, got %T", q)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Enqueue(NewRetrainTask("manual", 0)); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_RunsProcessor(t *testing.T) {
	queue := NewSyncQueue()

	var calls atomic.Int32
	queue.SetProcessor(func(ctx context.Context, task *RetrainTask) error {
		calls.Add(1)
		if task.Reason == "fail" {
			return errors.New("boom")
		}
		return nil
	})

	for _, reason := range []string{"gold_label", "fail", "manual"} {
		if err := queue.Enqueue(NewRetrainTask(reason, 0)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}
	if err := queue.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("processor calls = %d, expected 3", got)
	}
}

func TestAsyncQueue_IsAsync(t *testing.T) {
	queue := &AsyncQueue{}
	if !queue.IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}

func TestNewWorker_RedisDisabled(t *testing.T) {
	if w := NewWorker(&config.RedisConfig{Enabled: false}); w != nil {
		t.Error("NewWorker should return nil when Redis is disabled")
	}
}
