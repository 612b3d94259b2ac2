package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles moderator login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// GetCurrentModerator returns the logged-in moderator
// GET /api/auth/me
func (h *AuthHandler) GetCurrentModerator(c *gin.Context) {
	mod, err := h.authService.GetModerator(c.Request.Context(), middleware.GetModeratorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, mod)
}

// Logout handles logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}
