package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/filestore"
)

type bufCloser struct {
	*bytes.Reader
}

func (bufCloser) Close() error { return nil }

func getFile(t *testing.T, h *ExportHandler, key string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/exports/files/"+key, nil)
	c.Params = gin.Params{{Key: "key", Value: key}}
	h.GetFile(c)
	c.Writer.WriteHeaderNow() // flush buffered status, as gin's engine does after the handler chain
	return rec
}

func TestExportHandlerGetFile(t *testing.T) {
	store, err := filestore.New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	content := []byte("# Database Schema Report\n")
	require.NoError(t, store.Save(context.Background(), "report.md", bufCloser{bytes.NewReader(content)}, int64(len(content))))

	h := NewExportHandler(nil, store)
	rec := getFile(t, h, "report.md")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, content, rec.Body.Bytes())
}

func TestExportHandlerGetFile_HTMLContentType(t *testing.T) {
	store, err := filestore.New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	content := []byte("<h1>Database Schema Report</h1>")
	require.NoError(t, store.Save(context.Background(), "report.html", bufCloser{bytes.NewReader(content)}, int64(len(content))))

	h := NewExportHandler(nil, store)
	rec := getFile(t, h, "report.html")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestExportHandlerGetFile_Missing(t *testing.T) {
	store, err := filestore.New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	h := NewExportHandler(nil, store)
	rec := getFile(t, h, "absent.md")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportHandlerGetFile_BadKey(t *testing.T) {
	store, err := filestore.New(config.FileStoreConfig{Type: "local", Dir: t.TempDir()})
	require.NoError(t, err)

	h := NewExportHandler(nil, store)
	rec := getFile(t, h, "a/../../etc/passwd")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
