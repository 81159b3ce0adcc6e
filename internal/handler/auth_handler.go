package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/config"
	"github.com/schemarag/schemarag/internal/pkg/errcode"
	"github.com/schemarag/schemarag/internal/pkg/jwt"
	"github.com/schemarag/schemarag/internal/pkg/password"
	"github.com/schemarag/schemarag/internal/pkg/response"
)

// AuthHandler issues tokens for the single configured operator.
type AuthHandler struct {
	operator config.OperatorConfig
	secret   []byte
	ttl      time.Duration
}

func NewAuthHandler(operator config.OperatorConfig, secret []byte, ttl time.Duration) *AuthHandler {
	return &AuthHandler{operator: operator, secret: secret, ttl: ttl}
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Name != h.operator.Name || password.Compare(h.operator.PasswordHash, req.Password) != nil {
		response.Error(c, errcode.ErrUnauthorized, "bad operator name or password")
		return
	}
	token, err := jwt.GenerateToken(req.Name, h.secret, h.ttl)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int64(h.ttl.Seconds()),
	})
}
