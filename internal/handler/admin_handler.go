package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/pkg/errcode"
	"github.com/schemarag/schemarag/internal/pkg/response"
	"github.com/schemarag/schemarag/internal/service"
)

type AdminHandler struct {
	rag *service.RAGService
}

func NewAdminHandler(rag *service.RAGService) *AdminHandler {
	return &AdminHandler{rag: rag}
}

type resetRequest struct {
	Confirm bool `json:"confirm"`
}

// Reset wipes the whole schema store. The confirm flag keeps a stray request
// from dropping every indexed document.
func (h *AdminHandler) Reset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if !req.Confirm {
		response.Error(c, errcode.ErrInvalid, "confirm must be true to reset the schema store")
		return
	}
	ok := h.rag.Reset(c.Request.Context())
	response.Success(c, gin.H{"ok": ok})
}

func (h *AdminHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{
		"status":    "healthy",
		"documents": h.rag.Count(c.Request.Context()),
	})
}
