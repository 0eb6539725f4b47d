package http

import (
	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database Pinger
	Registry *adapters.Registry
	Importer Importer
	Exporter Exporter
	Audit    AuditReader // optional

	// Uploads
	UploadDir       string
	MaxUploadBytes  int64
	DefaultStrategy adapters.ConflictStrategy

	// Application info
	Version string
	Logger  zerolog.Logger
}
