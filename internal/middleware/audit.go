package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/services"
)

const maxAuditBody = 2000

// AuditLog records moderator write operations (POST/PUT/PATCH/DELETE) to system_logs.
// Multipart bodies are not captured.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodPatch && method != http.MethodDelete {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil && !strings.HasPrefix(c.ContentType(), "multipart/") {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > maxAuditBody {
				bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)
		message := formatAuditMessage(GetUsername(c), method, c.Request.URL.Path, status)

		extra := map[string]interface{}{
			"method":     method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"body":       bodySnippet,
			"user_agent": c.Request.UserAgent(),
			"audit":      true,
		}
		if status >= http.StatusBadRequest {
			services.LogWarning(module, action, message, ModeratorIDPtr(c), c.ClientIP(), extra)
			return
		}
		services.LogInfo(module, action, message, ModeratorIDPtr(c), c.ClientIP(), extra)
	}
}

// parseRouteInfo extracts module and action from a gin route pattern,
// e.g. "/api/wordlist/:id" + "PUT" gives module "wordlist", action "update"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	parts := strings.SplitN(path, "/", 2)
	module = parts[0]
	if module == "" {
		module = "unknown"
	}

	switch method {
	case http.MethodPost:
		action = "create"
	case http.MethodPut, http.MethodPatch:
		action = "update"
	case http.MethodDelete:
		action = "delete"
	default:
		action = strings.ToLower(method)
	}
	return module, action
}

func formatAuditMessage(username, method, path string, status int) string {
	var b strings.Builder
	b.WriteString("[Audit] ")
	if username == "" {
		username = "anonymous"
	}
	b.WriteString(username)
	b.WriteString(" ")
	b.WriteString(method)
	b.WriteString(" ")
	b.WriteString(path)
	b.WriteString(" -> ")
	if status >= 200 && status < 300 {
		b.WriteString("OK")
	} else {
		b.WriteString("Failed")
	}
	return b.String()
}

// maskSensitiveFields replaces sensitive values in a JSON body
func maskSensitiveFields(body string) string {
	sensitiveKeys := []string{"password", "secret", "token"}
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, key) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue masks the string value of the first "key" in body
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+key+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) || body[valueStart] != '"' {
		return body
	}

	endQuote := strings.Index(body[valueStart+1:], "\"")
	if endQuote == -1 {
		return body
	}
	return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
}
