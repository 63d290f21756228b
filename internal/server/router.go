package server

import (
	"github.com/abduss/filevault/internal/audit"
	"github.com/abduss/filevault/internal/config"
	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/identity"
	"github.com/abduss/filevault/internal/logger"
	"github.com/abduss/filevault/internal/metrics"
	"github.com/abduss/filevault/internal/signedlink"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies groups the services required by the HTTP router.
type Dependencies struct {
	Config       config.Config
	Logger       *zap.Logger
	Metadata     Pinger
	Content      Pinger
	FileService  *file.Service
	AuditService *audit.Service
	LinkHandler  *signedlink.Handler
}

// NewRouter builds a Gin engine with foundational middleware and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.Middleware(deps.Logger))
	router.Use(metrics.Middleware())

	registerHealthRoutes(router, deps)
	metrics.Register(router, deps.Config.Metrics.PrometheusPath)

	files := router.Group("/files")
	files.Use(identity.Middleware())

	if deps.FileService != nil {
		file.RegisterRoutes(files, deps.FileService, deps.Logger)
	}
	if deps.AuditService != nil {
		audit.RegisterRoutes(files, deps.AuditService, deps.Logger)
	}
	if deps.LinkHandler != nil {
		deps.LinkHandler.RegisterRoutes(files, router)
	}

	return router
}
