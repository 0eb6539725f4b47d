package http

import (
	"context"

	"github.com/mrlokans/courserecords/internal/adapters"
	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/importers"
)

// Each controller depends on the narrow interface it needs. The concrete
// implementations are importers.Orchestrator, exporters.Service,
// audit.Service and database.Database.

// Pinger checks that the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AdapterLister lists the registered adapters.
type AdapterLister interface {
	List() []adapters.Info
}

// Importer runs a file through an adapter into the store.
type Importer interface {
	Import(ctx context.Context, adapterID, path string, opts adapters.Options) (*importers.Report, error)
}

// Exporter writes an institution's records through an adapter.
type Exporter interface {
	Export(ctx context.Context, adapterID, institutionID, outputPath string) (adapters.ExportResult, error)
}

// AdapterLookup resolves an adapter descriptor by id.
type AdapterLookup interface {
	Get(id string) (adapters.Adapter, error)
}

// AuditReader reads the import/export trail.
type AuditReader interface {
	GetEvents(ctx context.Context, filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEvent(ctx context.Context, id uint) (*entities.AuditEvent, error)
	ReportPath(event *entities.AuditEvent) (string, bool)
}
