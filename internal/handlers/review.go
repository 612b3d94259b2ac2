package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/middleware"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

const defaultPendingLimit = 50

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Pending lists content waiting for a moderator, oldest first
// GET /api/reviews/pending
func (h *ReviewHandler) Pending(c *gin.Context) {
	limit := defaultPendingLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			response.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	items, err := h.reviews.PendingQueue(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Label opens a review and records the gold label in one step
// POST /api/content/:id/reviews
func (h *ReviewHandler) Label(c *gin.Context) {
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.GoldLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	review, err := h.reviews.Submit(c.Request.Context(), contentID, middleware.ModeratorIDPtr(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// Create opens an unlabeled review, claiming the item for the caller
// POST /api/content/:id/reviews/open
func (h *ReviewHandler) Create(c *gin.Context) {
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), contentID, middleware.ModeratorIDPtr(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// GET /api/content/:id/reviews
func (h *ReviewHandler) ListForContent(c *gin.Context) {
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListForContent(c.Request.Context(), contentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, reviews)
}

// GET /api/reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	review, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, review)
}

// SubmitGold labels an open review
// PUT /api/reviews/:id/gold
func (h *ReviewHandler) SubmitGold(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.GoldLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	review, err := h.reviews.SubmitGold(c.Request.Context(), id, middleware.ModeratorIDPtr(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, review)
}
