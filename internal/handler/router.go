package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schemarag/schemarag/internal/middleware"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Connections *ConnectionHandler
	Schemas     *SchemaHandler
	NLQ         *NLQHandler
	Export      *ExportHandler
	Admin       *AdminHandler
	JWTSecret   []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/login", deps.Auth.Login)
	api.GET("/health", deps.Admin.Health)
	api.GET("/exports/files/:key", deps.Export.GetFile)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/connections", deps.Connections.Connect)
	authGroup.GET("/connections", deps.Connections.List)
	authGroup.DELETE("/connections/:name", deps.Connections.Close)
	authGroup.POST("/connections/:name/discover", deps.Connections.Discover)

	authGroup.GET("/schemas/overview", deps.Schemas.Overview)
	authGroup.GET("/schemas/context/:database", deps.Schemas.Context)
	authGroup.POST("/schemas/search", deps.Schemas.Search)
	authGroup.DELETE("/schemas/:database", deps.Schemas.DeleteDatabase)

	authGroup.POST("/query", deps.NLQ.Query)
	authGroup.POST("/execute-sql", deps.NLQ.ExecuteSQL)

	authGroup.POST("/exports", deps.Export.Export)
	authGroup.POST("/admin/reset", deps.Admin.Reset)
}
