// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Format Adapters
//
//   - adapters.Adapter: one external file format (internal/adapters/adapter.go)
//   - adapters.Registry: adapters by id (internal/adapters/registry.go)
//
// ## Data Access Interfaces
//
//   - services.RecordReader / RecordWriter / RecordStore: canonical records by
//     entity type and natural key (internal/services/interfaces.go)
//   - audit.EventStore: audit trail persistence (internal/audit/service.go)
//
// ## Collaborator Interfaces
//
//   - importers.Recorder / exporters.Recorder: audit hooks called after every
//     run, implemented by audit.Service
//   - scheduler.BackupRunner / AuditPruner: what the cron job needs
//   - http.Importer / Exporter / AuditReader / Pinger: what the controllers need
//
// # Adding a New File Format
//
//  1. Create a package under internal/adapters/ with a type embedding
//     adapters.Base:
//
//     type Adapter struct {
//         adapters.Base
//     }
//
//     func NewAdapter() *Adapter {
//         return &Adapter{Base: adapters.NewBase(".json")}
//     }
//
//  2. Implement Info, ValidateFileCompatibility, DetectDataTypes, Parse and
//     Export. Parse returns string-valued records keyed by entity type; the
//     import orchestrator coerces them. Return adapters.ErrNotImplemented from
//     Export if the format is import-only and leave Info().Bidirectional false.
//
//  3. Register it in internal/adapters/builtin and add a compile-time check
//     to checks.go.
//
// # Adding a New Entity Type
//
//  1. Add the gorm model to internal/entities/models.go and AllModels.
//  2. Add the entity to EntityOrder (after everything it references),
//     CSVColumns, NaturalKeys and References in internal/entities/records.go.
//  3. Scope it in records.Repository.List if it carries no institution_id.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go.
package interfaces
