package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports the state of every subsystem the pipeline depends on
type HealthHandler struct {
	db    *gorm.DB
	queue *services.QueueService
	tasks services.TaskQueue
	hub   *services.SSEHub
}

func NewHealthHandler(db *gorm.DB, queue *services.QueueService, tasks services.TaskQueue, hub *services.SSEHub) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, tasks: tasks, hub: hub}
}

// CheckHealth answers 503 when the database is unreachable
// GET /health
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.tasks != nil && h.tasks.IsAsync() {
		queueMode = "async (Redis)"
	}

	components := gin.H{
		"database":    dbStatus,
		"queue_mode":  queueMode,
		"sse_clients": h.hub.ClientCount(),
	}
	if dbStatus == "ok" {
		if counts, err := h.queue.Counts(c.Request.Context()); err == nil {
			components["content"] = counts
		}
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"service":    "modsentry",
		"components": components,
	})
}
