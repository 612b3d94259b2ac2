package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/internal/models"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

const maxImageBytes = 10 << 20

type ContentHandler struct {
	content      *services.ContentService
	queue        *services.QueueService
	stuckTimeout time.Duration
}

func NewContentHandler(content *services.ContentService, queue *services.QueueService, stuckTimeout time.Duration) *ContentHandler {
	return &ContentHandler{content: content, queue: queue, stuckTimeout: stuckTimeout}
}

// Submit queues a new post or comment. Posts may carry an image as multipart field "image".
// POST /api/content
func (h *ContentHandler) Submit(c *gin.Context) {
	var req services.SubmitContentRequest
	var img *services.ImageUpload

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		fh, err := c.FormFile("image")
		switch {
		case err == nil:
			if img, err = readUpload(fh); err != nil {
				response.BadRequest(c, err.Error())
				return
			}
		case !errors.Is(err, http.ErrMissingFile):
			response.BadRequest(c, err.Error())
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	content, err := h.content.Submit(c.Request.Context(), req, img)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

func readUpload(fh *multipart.FileHeader) (*services.ImageUpload, error) {
	if fh.Size > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("image is empty")
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported image type %s", mimeType)
	}
	return &services.ImageUpload{FileName: fh.Filename, MimeType: mimeType, Data: data}, nil
}

// GET /api/content/:id
func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detail, err := h.content.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// GET /api/content/:id/predictions
func (h *ContentHandler) Predictions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	preds, err := h.content.Predictions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, preds)
}

// SendToReview puts any item in front of moderators regardless of its score.
// POST /api/content/:id/send-to-review
func (h *ContentHandler) SendToReview(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.queue.SendToReview(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	services.LogInfo("queue", "send_to_review", fmt.Sprintf("Content %d sent to review", id),
		middleware.ModeratorIDPtr(c), c.ClientIP(), nil)
	response.Success(c, gin.H{"id": id, "status": models.ContentStatusPendingReview})
}

// Requeue sends an item back through the scorer.
// POST /api/content/:id/requeue
func (h *ContentHandler) Requeue(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.queue.Enqueue(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	services.LogInfo("queue", "requeue", fmt.Sprintf("Content %d requeued", id),
		middleware.ModeratorIDPtr(c), c.ClientIP(), nil)
	response.Success(c, gin.H{"id": id, "status": models.ContentStatusQueued})
}

// GET /api/queue/stats
func (h *ContentHandler) QueueStats(c *gin.Context) {
	counts, err := h.queue.Counts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, counts)
}

type resetStuckRequest struct {
	TimeoutSeconds int `json:"timeout_seconds" binding:"omitempty,min=0"`
}

// ResetStuck requeues items left in Processing by a crashed worker.
// Without a body the configured stuck timeout applies.
// POST /api/queue/reset-stuck
func (h *ContentHandler) ResetStuck(c *gin.Context) {
	var req resetStuckRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	timeout := h.stuckTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	n, err := h.queue.ResetStuck(c.Request.Context(), timeout)
	if err != nil {
		response.Error(c, err)
		return
	}
	services.LogInfo("queue", "reset_stuck", fmt.Sprintf("Requeued %d stuck items (timeout %s)", n, timeout),
		middleware.ModeratorIDPtr(c), c.ClientIP(), nil)
	response.Success(c, gin.H{"reset": n, "timeout": timeout.String()})
}
