package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

type ModelHandler struct {
	training *services.TrainingService
	tasks    services.TaskQueue
}

func NewModelHandler(training *services.TrainingService, tasks services.TaskQueue) *ModelHandler {
	return &ModelHandler{training: training, tasks: tasks}
}

// GET /api/model/status
func (h *ModelHandler) Status(c *gin.Context) {
	status, err := h.training.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// GET /api/model/versions
func (h *ModelHandler) Versions(c *gin.Context) {
	versions, err := h.training.ListVersions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, versions)
}

type trainRequest struct {
	Activate *bool `json:"activate"`
}

// Train fits a version from every gold label right away, ignoring the counter.
// POST /api/model/train
func (h *ModelHandler) Train(c *gin.Context) {
	var req trainRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	activate := req.Activate == nil || *req.Activate

	mv, err := h.training.Train(c.Request.Context(), activate)
	if err != nil {
		response.Error(c, err)
		return
	}
	services.LogInfo("model", "train", "Manual training produced v"+strconv.Itoa(mv.Version),
		middleware.ModeratorIDPtr(c), c.ClientIP(), nil)
	response.Created(c, mv)
}

// Retrain queues a retrain check. The worker trains only if the counter is due.
// POST /api/model/retrain
func (h *ModelHandler) Retrain(c *gin.Context) {
	task := services.NewRetrainTask("manual", 0)
	if err := h.tasks.Enqueue(task); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"task_id": task.ID, "async": h.tasks.IsAsync()})
}

// POST /api/model/versions/:version/activate
func (h *ModelHandler) Activate(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		response.BadRequest(c, "invalid version")
		return
	}
	mv, err := h.training.Activate(c.Request.Context(), version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, mv)
}

// Reload reads the active version from disk again
// POST /api/model/reload
func (h *ModelHandler) Reload(c *gin.Context) {
	if err := h.training.LoadActive(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	h.Status(c)
}
