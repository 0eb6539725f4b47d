package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/courserecords/internal/entities"
)

// RecordReader looks up persisted records. Dry runs only ever need this half.
type RecordReader interface {
	// FindByNaturalKey returns the persisted record matching the natural key
	// fields of rec (entities.NaturalKeys), if any.
	FindByNaturalKey(ctx context.Context, entity string, rec entities.Record) (entities.Record, bool, error)

	// Exists reports whether a record of the entity with the given id is stored.
	Exists(ctx context.Context, entity, id string) (bool, error)

	// List returns every record of the entity belonging to the institution.
	// An empty institutionID lists all records.
	List(ctx context.Context, entity, institutionID string) ([]entities.Record, error)
}

// RecordWriter persists canonical records.
type RecordWriter interface {
	// Create inserts rec and returns its id. Join entities return "".
	Create(ctx context.Context, entity string, rec entities.Record) (string, error)

	// Update overwrites the record identified by id with the fields of rec.
	Update(ctx context.Context, entity, id string, rec entities.Record) error
}

// RecordStore is the persistence collaborator of imports and exports.
type RecordStore interface {
	RecordReader
	RecordWriter
}

// PersistenceError attributes a store failure to one incoming record.
type PersistenceError struct {
	Entity string
	Key    string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NaturalKey renders the natural key values of rec as "a|b", for reports and logs.
func NaturalKey(entity string, rec entities.Record) string {
	fields := entities.NaturalKeys[entity]
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprint(valueOrEmpty(rec[f])))
	}
	return strings.Join(parts, "|")
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}
