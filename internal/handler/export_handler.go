package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/filestore"
	"github.com/schemarag/schemarag/internal/pkg/response"
	"github.com/schemarag/schemarag/internal/service"
)

type ExportHandler struct {
	export *service.ExportService
	store  filestore.Store
}

func NewExportHandler(export *service.ExportService, store filestore.Store) *ExportHandler {
	return &ExportHandler{export: export, store: store}
}

func (h *ExportHandler) Export(c *gin.Context) {
	report, err := h.export.Export(c.Request.Context(), requestBaseURL(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}

// GetFile streams a saved report. Only the local store serves files through
// the API, s3 reports are fetched from the bucket URL directly.
func (h *ExportHandler) GetFile(c *gin.Context) {
	if h.store.Type() != "local" {
		c.Status(http.StatusNotFound)
		return
	}
	key := c.Param("key")
	if key == "" || strings.Contains(key, "/") || strings.Contains(key, "\\") {
		c.Status(http.StatusBadRequest)
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	defer file.Close()
	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	_, _ = file.Seek(0, 0)
	_, _ = io.Copy(c.Writer, file)
}

func requestBaseURL(c *gin.Context) string {
	proto := c.GetHeader("X-Forwarded-Proto")
	if proto == "" {
		if c.Request.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return proto + "://" + host
}
