package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/utils"
	"github.com/huangang/modsentry/backend/pkg/response"
)

const (
	ContextModeratorID = "moderator_id"
	ContextUsername    = "username"
	ContextRole        = "role"
)

// bearerToken reads "Authorization: Bearer <token>", falling back to the token query
// parameter for EventSource clients that cannot set headers
func bearerToken(c *gin.Context) (string, bool) {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if t := c.Query("token"); t != "" {
		return t, true
	}
	return "", false
}

// AuthRequired checks for a valid moderator JWT
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "authorization required")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextModeratorID, claims.ModeratorID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// AdminRequired checks for the admin role. It must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != models.RoleAdmin {
			response.Forbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetModeratorID returns the authenticated moderator, 0 when unauthenticated
func GetModeratorID(c *gin.Context) uint {
	if id, exists := c.Get(ContextModeratorID); exists {
		return id.(uint)
	}
	return 0
}

// ModeratorIDPtr is GetModeratorID as an optional foreign key
func ModeratorIDPtr(c *gin.Context) *uint {
	id := GetModeratorID(c)
	if id == 0 {
		return nil
	}
	return &id
}

func GetUsername(c *gin.Context) string {
	if username, exists := c.Get(ContextUsername); exists {
		return username.(string)
	}
	return ""
}

func GetRole(c *gin.Context) string {
	if role, exists := c.Get(ContextRole); exists {
		return role.(string)
	}
	return ""
}
