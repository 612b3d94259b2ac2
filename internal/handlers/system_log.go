package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
	retentionDays    int
}

func NewSystemLogHandler(svc *services.SystemLogService, retentionDays int) *SystemLogHandler {
	return &SystemLogHandler{systemLogService: svc, retentionDays: retentionDays}
}

// GET /api/system-logs
func (h *SystemLogHandler) List(c *gin.Context) {
	var req services.SystemLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.systemLogService.List(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Cleanup drops logs older than the configured retention
// POST /api/system-logs/cleanup
func (h *SystemLogHandler) Cleanup(c *gin.Context) {
	if h.retentionDays <= 0 {
		response.BadRequest(c, "log retention is disabled")
		return
	}
	n, err := h.systemLogService.CleanupOldLogs(c.Request.Context(), h.retentionDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": n})
}
