package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/pkg/jwt"
	"github.com/schemarag/schemarag/internal/pkg/password"
)

func postJSON(t *testing.T, handle gin.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handle(c)
	return rec
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, []byte) {
	t.Helper()
	hash, err := password.Hash("secret")
	require.NoError(t, err)
	secret := []byte("test-secret")
	h := NewAuthHandler(config.OperatorConfig{Name: "admin", PasswordHash: hash}, secret, time.Hour)
	return h, secret
}

func TestAuthHandlerLogin(t *testing.T) {
	h, secret := newTestAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", `{"name": "admin", "password": "secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `"token"`)
	require.Contains(t, body, `"expires_in"`)

	// the issued token must parse back with the same secret
	start := strings.Index(body, `"token":"`) + len(`"token":"`)
	end := strings.Index(body[start:], `"`)
	claims, err := jwt.ParseToken(body[start:start+end], secret)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Operator)
}

func TestAuthHandlerLogin_BadPassword(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", `{"name": "admin", "password": "wrong"}`)
	require.NotContains(t, rec.Body.String(), `"token"`)
}

func TestAuthHandlerLogin_UnknownOperator(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", `{"name": "root", "password": "secret"}`)
	require.NotContains(t, rec.Body.String(), `"token"`)
}

func TestAuthHandlerLogin_BadBody(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.Login, "/api/v1/auth/login", `{`)
	require.NotContains(t, rec.Body.String(), `"token"`)
}
