package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schemarag/schemarag/internal/ai"
	"github.com/schemarag/schemarag/internal/middleware"
	"github.com/schemarag/schemarag/internal/pkg/errcode"
	appErr "github.com/schemarag/schemarag/internal/pkg/errors"
	"github.com/schemarag/schemarag/internal/pkg/response"
)

func getOperator(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextOperatorKey)
	operator, _ := value.(string)
	return operator
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("operator", getOperator(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrUnsupportedDatabase), errors.Is(err, appErr.ErrNotConnected):
		response.Error(c, errcode.ErrConnectFailed, err.Error())
	case errors.Is(err, appErr.ErrQueryRejected):
		response.Error(c, errcode.ErrQueryRejected, err.Error())
	case errors.Is(err, appErr.ErrAllEmbeddingsFailed):
		response.Error(c, errcode.ErrStoreFailed, err.Error())
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
