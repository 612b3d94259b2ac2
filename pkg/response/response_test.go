package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name    string
		handler gin.HandlerFunc
		status  int
		code    int
	}{
		{"success", func(c *gin.Context) { Success(c, gin.H{"name": "test"}) }, http.StatusOK, 0},
		{"created", func(c *gin.Context) { Created(c, gin.H{"id": 1}) }, http.StatusCreated, 0},
		{"accepted", func(c *gin.Context) { Accepted(c, nil) }, http.StatusAccepted, 0},
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid input") }, http.StatusBadRequest, 400},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "token expired") }, http.StatusUnauthorized, 401},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "admin required") }, http.StatusForbidden, 403},
		{"not found", func(c *gin.Context) { NotFound(c, "missing") }, http.StatusNotFound, 404},
		{"too many requests", func(c *gin.Context) { TooManyRequests(c, "slow down") }, http.StatusTooManyRequests, 429},
		{"server error", func(c *gin.Context) { ServerError(c, "internal error") }, http.StatusInternalServerError, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.handler)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, fmt.Errorf("wrapped: %w", NewConflict("word exists")))
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Message != "word exists" {
		t.Errorf("expected message 'word exists', got %q", resp.Message)
	}
}

func TestError_WithMappedError(t *testing.T) {
	errMissing := errors.New("content not found")
	MapError(errMissing, http.StatusNotFound)

	w := performRequest(func(c *gin.Context) {
		Error(c, fmt.Errorf("get content 7: %w", errMissing))
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 404 {
		t.Errorf("expected code 404, got %d", resp.Code)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp := parseResponse(t, w); resp.Code != 500 {
		t.Errorf("expected code 500, got %d", resp.Code)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	err := NewNotFound("review not found")
	if err.Error() != "review not found" {
		t.Errorf("expected 'review not found', got %q", err.Error())
	}
}
