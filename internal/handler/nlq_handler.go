package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/pkg/errcode"
	"github.com/schemarag/schemarag/internal/pkg/response"
	"github.com/schemarag/schemarag/internal/service"
)

type NLQHandler struct {
	nlq *service.NLQService
}

func NewNLQHandler(nlq *service.NLQService) *NLQHandler {
	return &NLQHandler{nlq: nlq}
}

type queryRequest struct {
	Question string `json:"question"`
	Database string `json:"database"`
}

func (h *NLQHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Question == "" {
		response.Error(c, errcode.ErrInvalid, "question required")
		return
	}
	result, err := h.nlq.Query(c.Request.Context(), req.Question, req.Database)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

type executeSQLRequest struct {
	Database string `json:"database"`
	SQL      string `json:"sql"`
}

func (h *NLQHandler) ExecuteSQL(c *gin.Context) {
	var req executeSQLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	rows, err := h.nlq.ExecuteSQL(c.Request.Context(), req.Database, req.SQL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"rows":  rows,
		"count": len(rows),
	})
}
