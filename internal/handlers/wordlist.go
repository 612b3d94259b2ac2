package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/response"
)

type WordlistHandler struct {
	words *services.WordlistService
}

func NewWordlistHandler(words *services.WordlistService) *WordlistHandler {
	return &WordlistHandler{words: words}
}

// GET /api/wordlist?category=spam
func (h *WordlistHandler) List(c *gin.Context) {
	words, err := h.words.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, words)
}

type addWordRequest struct {
	Word     string `json:"word" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// POST /api/wordlist
func (h *WordlistHandler) Create(c *gin.Context) {
	var req addWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, err := h.words.Add(c.Request.Context(), req.Word, req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, w)
}

// PUT /api/wordlist/:id
func (h *WordlistHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req services.WordUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	w, err := h.words.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, w)
}

// DELETE /api/wordlist/:id
func (h *WordlistHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.words.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "deleted"})
}
