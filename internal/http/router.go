// Package http exposes the import/export operations over a JSON API.
package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(RequestLogger(cfg.Logger))

	health := NewHealthController(cfg.Database, cfg.Version)
	adaptersController := NewAdaptersController(cfg.Registry)
	importController := NewImportController(cfg.Importer, cfg.UploadDir, cfg.MaxUploadBytes, cfg.DefaultStrategy)
	exportController := NewExportController(cfg.Exporter, cfg.Registry)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	api.GET("/adapters", adaptersController.List)
	api.POST("/import", importController.Import)
	api.GET("/export", exportController.Export)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		api.GET("/audit", auditController.GetAuditEvents)
		api.GET("/audit/:id", auditController.GetAuditEvent)
		api.GET("/audit/:id/report", auditController.DownloadReport)
	}

	return router
}

// RequestLogger writes one structured line per request.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "http").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", c.GetString(ContextKeyRequestID)).
			Msg("Request handled")
	}
}
