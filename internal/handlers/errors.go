package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
	"gorm.io/gorm"
)

func init() {
	for _, err := range []error{
		services.ErrContentNotFound,
		services.ErrReviewNotFound,
		services.ErrWordNotFound,
		services.ErrModelVersionNotFound,
		gorm.ErrRecordNotFound,
	} {
		response.MapError(err, http.StatusNotFound)
	}
	for _, err := range []error{
		services.ErrInvalidContentType,
		services.ErrInvalidGoldLabel,
		services.ErrInvalidThresholds,
		services.ErrInvalidRetrainCount,
		services.ErrImageNotAllowed,
		services.ErrEmptyWord,
	} {
		response.MapError(err, http.StatusBadRequest)
	}
	response.MapError(services.ErrInvalidCredentials, http.StatusUnauthorized)
	response.MapError(services.ErrNotEnoughTrainingData, http.StatusConflict)
	response.MapError(services.ErrContentProcessing, http.StatusConflict)
}

// parseID reads a numeric path parameter, answering 400 when it is malformed
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
