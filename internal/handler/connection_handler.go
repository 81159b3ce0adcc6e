package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/model"
	"github.com/schemarag/schemarag/internal/pkg/errcode"
	"github.com/schemarag/schemarag/internal/pkg/response"
	"github.com/schemarag/schemarag/internal/service"
)

type ConnectionHandler struct {
	conns  *service.ConnectionService
	ingest *service.IngestService
}

func NewConnectionHandler(conns *service.ConnectionService, ingest *service.IngestService) *ConnectionHandler {
	return &ConnectionHandler{conns: conns, ingest: ingest}
}

type connectRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Path     string `json:"path"`
	URI      string `json:"uri"`
}

func (h *ConnectionHandler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Name == "" {
		response.Error(c, errcode.ErrInvalid, "connection name required")
		return
	}
	dbType, err := model.ParseDatabaseType(req.Type)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, err.Error())
		return
	}
	info, err := h.conns.Open(c.Request.Context(), model.ConnectionConfig{
		Name:     req.Name,
		Type:     dbType,
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		Database: req.Database,
		Path:     req.Path,
		URI:      req.URI,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, info)
}

func (h *ConnectionHandler) List(c *gin.Context) {
	response.Success(c, gin.H{"connections": h.conns.List()})
}

func (h *ConnectionHandler) Close(c *gin.Context) {
	if err := h.conns.Close(c.Request.Context(), c.Param("name")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Discover walks the schema of one open connection and indexes the resulting
// documents in a single call.
func (h *ConnectionHandler) Discover(c *gin.Context) {
	name := c.Param("name")
	result, err := h.ingest.DiscoverAndStore(c.Request.Context(), name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message":          fmt.Sprintf("Schema discovered and stored for %s", result.Database),
		"database_name":    result.Database,
		"database_type":    result.Type,
		"tables":           result.Tables,
		"collections":      result.Collections,
		"relationships":    result.Relationships,
		"documents_stored": result.DocumentsStored,
	})
}
