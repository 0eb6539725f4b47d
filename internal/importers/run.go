package importers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/services"
)

// References that may point outside the imported data set. When they cannot be
// resolved the field is dropped with a warning instead of failing the record.
var optionalReferences = map[string]bool{
	"invited_by":    true,
	"instructor_id": true,
}

// importRun carries the state of one import across records.
type importRun struct {
	store  services.RecordStore
	opts   adapters.Options
	report *Report
	// ids maps the id a record carried in the file to its persisted id, per entity.
	ids map[string]map[string]string
	// planned maps the natural keys a dry run would create to their ids, per
	// entity, so later records of the batch match them as a real run would.
	planned map[string]map[string]string
	log     zerolog.Logger
}

func (r *importRun) importRecord(ctx context.Context, entity string, index int, incoming entities.Record) {
	rec := incoming.Clone()
	for _, field := range entities.SensitiveFields {
		delete(rec, field)
	}
	fileID := adapters.FormatValue("id", rec["id"])

	if r.opts.InstitutionID != "" && hasColumn(entity, "institution_id") && rec["institution_id"] == nil {
		rec["institution_id"] = r.opts.InstitutionID
	}

	if err := r.resolveReferences(ctx, entity, index, rec); err != nil {
		r.fail(entity, index, rec, err)
		return
	}

	native, err := Coerce(rec)
	if err != nil {
		r.fail(entity, index, rec, err)
		return
	}

	if err := requireNaturalKey(entity, native); err != nil {
		r.fail(entity, index, native, err)
		return
	}

	existing, found, err := r.store.FindByNaturalKey(ctx, entity, native)
	if err != nil {
		r.fail(entity, index, native, r.persistenceError(entity, native, err))
		return
	}
	if !found && r.opts.DryRun {
		if id, ok := r.planned[entity][services.NaturalKey(entity, native)]; ok {
			existing, found = entities.Record{"id": id}, true
		}
	}

	if !found {
		r.create(ctx, entity, index, fileID, native)
		return
	}

	existingID := adapters.FormatValue("id", existing["id"])
	r.remember(entity, fileID, existingID)

	if r.opts.ConflictStrategy == adapters.UseMine {
		r.report.skipped(entity)
		return
	}

	if entity == entities.EntityUsers {
		// An existing account keeps its own status.
		delete(native, "account_status")
	}
	if !r.opts.DryRun {
		if err := r.store.Update(ctx, entity, existingID, native); err != nil {
			r.fail(entity, index, native, r.persistenceError(entity, native, err))
			return
		}
	}
	r.report.updated(entity)
}

func (r *importRun) create(ctx context.Context, entity string, index int, fileID string, native entities.Record) {
	if entity == entities.EntityUsers {
		native["account_status"] = entities.AccountStatusPending
	}

	id := fileID
	if r.opts.DryRun {
		if r.planned[entity] == nil {
			r.planned[entity] = make(map[string]string)
		}
		r.planned[entity][services.NaturalKey(entity, native)] = id
	} else {
		created, err := r.store.Create(ctx, entity, native)
		if err != nil {
			r.fail(entity, index, native, r.persistenceError(entity, native, err))
			return
		}
		id = created
	}

	r.remember(entity, fileID, id)
	r.report.created(entity)
}

// resolveReferences rewrites foreign keys to persisted ids. A reference
// resolves when an earlier record of this import carried that id, or when the
// store already holds a record with it. Every reference other than the
// optional ones must be present.
func (r *importRun) resolveReferences(ctx context.Context, entity string, index int, rec entities.Record) error {
	refs := entities.References[entity]
	fields := make([]string, 0, len(refs))
	for field := range refs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		target := refs[field]
		ref := adapters.FormatValue(field, rec[field])
		if ref == "" {
			if optionalReferences[field] {
				delete(rec, field)
				continue
			}
			return fmt.Errorf("%s is required", field)
		}
		if id, ok := r.ids[target][ref]; ok {
			rec[field] = id
			continue
		}

		exists, err := r.store.Exists(ctx, target, ref)
		if err != nil {
			return r.persistenceError(entity, rec, err)
		}
		if exists {
			continue
		}

		if optionalReferences[field] {
			delete(rec, field)
			r.report.Warnings = append(r.report.Warnings, adapters.Warning{
				Entity:  entity,
				Line:    index,
				Field:   field,
				Message: fmt.Sprintf("unknown %s %q dropped", target, ref),
			})
			continue
		}
		return fmt.Errorf("%s references unknown %s %q", field, target, ref)
	}
	return nil
}

func (r *importRun) remember(entity, fileID, id string) {
	if fileID == "" || id == "" {
		return
	}
	if r.ids[entity] == nil {
		r.ids[entity] = make(map[string]string)
	}
	r.ids[entity][fileID] = id
}

func (r *importRun) persistenceError(entity string, rec entities.Record, err error) error {
	var pe *services.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &services.PersistenceError{Entity: entity, Key: services.NaturalKey(entity, rec), Err: err}
}

func (r *importRun) fail(entity string, index int, rec entities.Record, err error) {
	key := services.NaturalKey(entity, rec)
	r.log.Warn().Err(err).Str("entity", entity).Int("index", index).Str("key", key).Msg("Record not imported")
	r.report.errored(entity, index, key, err.Error())
}

// requireNaturalKey rejects records that could not be told apart from other
// records of the same entity.
func requireNaturalKey(entity string, rec entities.Record) error {
	for _, field := range entities.NaturalKeys[entity] {
		if adapters.FormatValue(field, rec[field]) == "" {
			return fmt.Errorf("missing natural key field %s", field)
		}
	}
	return nil
}

func hasColumn(entity, column string) bool {
	for _, c := range entities.CSVColumns[entity] {
		if c == column {
			return true
		}
	}
	return false
}
