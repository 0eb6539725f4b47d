package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/document"
	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/adapters/spreadsheet"
	"github.com/mrlokans/courserecords/internal/audit"
	"github.com/mrlokans/courserecords/internal/database"
	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/database/records"
	"github.com/mrlokans/courserecords/internal/exporters"
	"github.com/mrlokans/courserecords/internal/http"
	"github.com/mrlokans/courserecords/internal/importers"
	"github.com/mrlokans/courserecords/internal/scheduler"
	"github.com/mrlokans/courserecords/internal/services"
)

// =============================================================================
// Format Adapters
// =============================================================================

var _ adapters.Adapter = (*document.TextBlockAdapter)(nil)
var _ adapters.Adapter = (*document.TableAdapter)(nil)
var _ adapters.Adapter = (*generic.Adapter)(nil)
var _ adapters.Adapter = (*spreadsheet.Adapter)(nil)

// =============================================================================
// Data Access Layer
// =============================================================================

// RecordStore implementations
var _ services.RecordStore = (*records.Repository)(nil)

// EventStore implementations
var _ audit.EventStore = (*auditRepo.Repository)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ importers.Recorder = (*audit.Service)(nil)
var _ exporters.Recorder = (*audit.Service)(nil)
var _ scheduler.AuditPruner = (*audit.Service)(nil)

// =============================================================================
// HTTP Controllers
// =============================================================================

var _ http.Pinger = (*database.Database)(nil)
var _ http.AdapterLister = (*adapters.Registry)(nil)
var _ http.AdapterLookup = (*adapters.Registry)(nil)
var _ http.Importer = (*importers.Orchestrator)(nil)
var _ http.Exporter = (*exporters.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)

// =============================================================================
// Scheduled Backups
// =============================================================================

var _ scheduler.BackupRunner = (*exporters.Service)(nil)
