package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/internal/scoring"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

type SettingsHandler struct {
	settings   *services.SettingsService
	thresholds *services.ThresholdService
}

func NewSettingsHandler(settings *services.SettingsService, thresholds *services.ThresholdService) *SettingsHandler {
	return &SettingsHandler{settings: settings, thresholds: thresholds}
}

// GET /api/settings
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, s)
}

// PUT /api/settings/thresholds
func (h *SettingsHandler) UpdateThresholds(c *gin.Context) {
	var req scoring.Thresholds
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s, err := h.settings.UpdateThresholds(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	services.LogInfo("settings", "update_thresholds",
		fmt.Sprintf("Thresholds set to allow=%.2f review=%.2f block=%.2f", req.Allow, req.Review, req.Block),
		middleware.ModeratorIDPtr(c), c.ClientIP(), nil)
	response.Success(c, s)
}

type retrainSettingsRequest struct {
	RetrainThreshold  *int  `json:"retrain_threshold"`
	RetrainingEnabled *bool `json:"retraining_enabled"`
}

// PATCH /api/settings/retraining
func (h *SettingsHandler) UpdateRetraining(c *gin.Context) {
	var req retrainSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.RetrainThreshold == nil && req.RetrainingEnabled == nil {
		response.BadRequest(c, "nothing to update")
		return
	}

	ctx := c.Request.Context()
	if req.RetrainThreshold != nil {
		if _, err := h.settings.UpdateRetrainThreshold(ctx, *req.RetrainThreshold); err != nil {
			response.Error(c, err)
			return
		}
	}
	if req.RetrainingEnabled != nil {
		if _, err := h.settings.SetRetrainingEnabled(ctx, *req.RetrainingEnabled); err != nil {
			response.Error(c, err)
			return
		}
	}
	s, err := h.settings.Get(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, s)
}

// AdaptThresholds runs the threshold adjustment now instead of waiting for the schedule
// POST /api/settings/thresholds/adapt
func (h *SettingsHandler) AdaptThresholds(c *gin.Context) {
	update, err := h.thresholds.Update(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, update)
}
