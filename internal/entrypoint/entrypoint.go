// Package entrypoint wires the HTTP service together and runs it until
// SIGINT or SIGTERM.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters/builtin"
	"github.com/mrlokans/courserecords/internal/audit"
	"github.com/mrlokans/courserecords/internal/config"
	"github.com/mrlokans/courserecords/internal/database"
	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/database/records"
	"github.com/mrlokans/courserecords/internal/exporters"
	http_controllers "github.com/mrlokans/courserecords/internal/http"
	"github.com/mrlokans/courserecords/internal/importers"
	"github.com/mrlokans/courserecords/internal/logging"
	"github.com/mrlokans/courserecords/internal/scheduler"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, logger zerolog.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// kill (no param) default sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Info().Msg("Server exiting")
}

// Run builds every service from cfg and serves HTTP until interrupted.
func Run(cfg *config.Config, version string) {
	logger := logging.Configure(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	gin.SetMode(gin.ReleaseMode)
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}

	registry := builtin.NewRegistry()
	store := records.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), audit.NewAuditor(cfg.Audit.Dir), logger)

	orchestrator := importers.NewOrchestrator(importers.Config{
		Registry:        registry,
		Store:           store,
		Recorder:        auditService,
		Logger:          logger,
		DefaultStrategy: cfg.Import.DefaultStrategy,
	})
	exportService := exporters.NewService(exporters.Config{
		Registry: registry,
		Store:    store,
		Recorder: auditService,
		Logger:   logger,
	})

	var backups *scheduler.BackupScheduler
	if cfg.Backup.Enabled {
		backups = scheduler.NewBackupScheduler(exportService, auditService, scheduler.Config{
			Schedule:       cfg.Backup.Schedule,
			Dir:            cfg.Backup.Dir,
			InstitutionIDs: cfg.Backup.InstitutionIDs,
			AuditRetention: time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour,
		}, logger)
		if err := backups.Start(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to start backup scheduler")
		}
	} else {
		logger.Info().Msg("Scheduled backups disabled")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:        db,
		Registry:        registry,
		Importer:        orchestrator,
		Exporter:        exportService,
		Audit:           auditService,
		UploadDir:       cfg.Import.UploadDir,
		MaxUploadBytes:  cfg.Import.MaxUploadBytes(),
		DefaultStrategy: cfg.Import.DefaultStrategy,
		Version:         version,
		Logger:          logger,
	})

	onShutdown := func(ctx context.Context) {
		if backups != nil {
			backups.Stop()
		}
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close database")
		}
	}

	Serve(router, cfg, logger, onShutdown)
}
