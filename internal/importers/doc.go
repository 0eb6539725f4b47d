// Package importers runs adapter output into the record store.
//
// # Flow
//
//	file → Adapter.ValidateFileCompatibility → Adapter.Parse → Orchestrator → RecordStore
//
// The orchestrator walks the parsed records in dependency order
// (entities.EntityOrder). For every record it:
//
//  1. strips credential fields
//  2. defaults institution_id from the run options
//  3. rewrites foreign keys onto persisted ids and rejects dangling ones
//  4. coerces string values to native kinds (Coerce)
//  5. looks the record up by natural key and creates, updates (use_theirs)
//     or skips it (use_mine)
//
// A dry run performs every step above except the writes. Record failures are
// collected in the Report and never stop the run.
//
// # Example Usage
//
//	orchestrator := importers.NewOrchestrator(importers.Config{
//		Registry: builtin.NewRegistry(),
//		Store:    records.NewRepository(db.DB),
//		Logger:   logger,
//	})
//
//	report, err := orchestrator.Import(ctx, "generic_csv", "./export.zip", adapters.Options{
//		InstitutionID:    "inst-1",
//		ConflictStrategy: adapters.UseMine,
//	})
package importers
