package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/pkg/errcode"
	"github.com/schemarag/schemarag/internal/pkg/response"
	"github.com/schemarag/schemarag/internal/service"
)

type SchemaHandler struct {
	rag *service.RAGService
}

func NewSchemaHandler(rag *service.RAGService) *SchemaHandler {
	return &SchemaHandler{rag: rag}
}

func (h *SchemaHandler) Overview(c *gin.Context) {
	response.Success(c, h.rag.Overview(c.Request.Context()))
}

func (h *SchemaHandler) Context(c *gin.Context) {
	database := c.Param("database")
	if database == "" {
		response.Error(c, errcode.ErrInvalid, "database required")
		return
	}
	response.Success(c, gin.H{
		"database": database,
		"context":  h.rag.Context(c.Request.Context(), database),
	})
}

type searchRequest struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	Database string `json:"database"`
}

func (h *SchemaHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	results := h.rag.Search(c.Request.Context(), req.Query, req.Limit, req.Database)
	response.Success(c, gin.H{
		"results": results,
		"count":   len(results),
	})
}

func (h *SchemaHandler) DeleteDatabase(c *gin.Context) {
	database := c.Param("database")
	if database == "" {
		response.Error(c, errcode.ErrInvalid, "database required")
		return
	}
	ok := h.rag.DeleteDatabase(c.Request.Context(), database)
	response.Success(c, gin.H{"ok": ok})
}
