package response

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// List wraps a page of items.
type List struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int
	Code       int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: 400, Message: msg}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: 401, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: 404, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: 409, Message: msg}
}

var (
	statusMu  sync.RWMutex
	statusMap []statusMapping
)

type statusMapping struct {
	target error
	status int
}

// MapError makes Error answer with status for any error matching target via errors.Is.
func MapError(target error, status int) {
	statusMu.Lock()
	defer statusMu.Unlock()
	statusMap = append(statusMap, statusMapping{target: target, status: status})
}

func mappedStatus(err error) (int, bool) {
	statusMu.RLock()
	defer statusMu.RUnlock()
	for _, m := range statusMap {
		if errors.Is(err, m.target) {
			return m.status, true
		}
	}
	return 0, false
}

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "created", Data: data})
}

// Accepted sends a 202 response for work that continues in the background.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{Code: 0, Message: "accepted", Data: data})
}

// Error sends an error response. *AppError and mapped errors keep their status,
// anything else becomes a 500.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{Code: appErr.Code, Message: appErr.Message})
		return
	}
	if status, ok := mappedStatus(err); ok {
		c.JSON(status, Response{Code: status, Message: err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: err.Error()})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: 403, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Message: msg})
}

func TooManyRequests(c *gin.Context, msg string) {
	c.JSON(http.StatusTooManyRequests, Response{Code: 429, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Message: msg})
}
