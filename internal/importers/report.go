package importers

import (
	"fmt"
	"time"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
)

type Status string

const (
	// StatusSucceeded means every record was created, updated or skipped.
	StatusSucceeded Status = "succeeded"
	// StatusSucceededWithErrors means at least one record failed and the rest went through.
	StatusSucceededWithErrors Status = "succeeded_with_errors"
	// StatusRejected means the file failed before any record was written.
	StatusRejected Status = "rejected"
)

// EntityCounts tallies the outcome of every record of one entity type.
type EntityCounts struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// RecordError explains why one incoming record was not imported.
type RecordError struct {
	Entity string `json:"entity"`
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

func (e RecordError) String() string {
	return fmt.Sprintf("%s #%d (%s): %s", e.Entity, e.Index, e.Key, e.Reason)
}

// Report is the outcome of one import run. Counts in a dry run describe what
// would have happened.
type Report struct {
	AdapterID     string                    `json:"adapter_id"`
	InstitutionID string                    `json:"institution_id,omitempty"`
	Status        Status                    `json:"status"`
	DryRun        bool                      `json:"dry_run"`
	Strategy      adapters.ConflictStrategy `json:"conflict_strategy"`
	Message       string                    `json:"message"`
	Total         int                       `json:"total"`
	Created       int                       `json:"created"`
	Updated       int                       `json:"updated"`
	Skipped       int                       `json:"skipped"`
	Errored       int                       `json:"errored"`
	Entities      map[string]*EntityCounts  `json:"entities"`
	Errors        []RecordError             `json:"errors"`
	Warnings      []adapters.Warning        `json:"warnings"`
	StartedAt     time.Time                 `json:"started_at"`
	DurationMS    int64                     `json:"duration_ms"`
}

func newReport(adapterID string, opts adapters.Options, startedAt time.Time) *Report {
	return &Report{
		AdapterID:     adapterID,
		InstitutionID: opts.InstitutionID,
		DryRun:        opts.DryRun,
		Strategy:      opts.ConflictStrategy,
		Entities:      make(map[string]*EntityCounts),
		Errors:        []RecordError{},
		Warnings:      []adapters.Warning{},
		StartedAt:     startedAt,
	}
}

func (r *Report) counts(entity string) *EntityCounts {
	c, ok := r.Entities[entity]
	if !ok {
		c = &EntityCounts{}
		r.Entities[entity] = c
	}
	return c
}

func (r *Report) created(entity string) {
	c := r.counts(entity)
	c.Total++
	c.Created++
	r.Total++
	r.Created++
}

func (r *Report) updated(entity string) {
	c := r.counts(entity)
	c.Total++
	c.Updated++
	r.Total++
	r.Updated++
}

func (r *Report) skipped(entity string) {
	c := r.counts(entity)
	c.Total++
	c.Skipped++
	r.Total++
	r.Skipped++
}

func (r *Report) errored(entity string, index int, key, reason string) {
	c := r.counts(entity)
	c.Total++
	c.Errored++
	r.Total++
	r.Errored++
	r.Errors = append(r.Errors, RecordError{Entity: entity, Index: index, Key: key, Reason: reason})
}

func (r *Report) reject(message string) {
	r.Status = StatusRejected
	r.Message = message
}

// complete settles the status and summary message once every record is processed.
func (r *Report) complete() {
	r.Status = StatusSucceeded
	if r.Errored > 0 {
		r.Status = StatusSucceededWithErrors
	}

	verb := "imported"
	if r.DryRun {
		verb = "dry run:"
	}
	r.Message = fmt.Sprintf("%s %d records (%d created, %d updated, %d skipped, %d errored)",
		verb, r.Total, r.Created, r.Updated, r.Skipped, r.Errored)
}

// Succeeded reports whether the run got past validation and parsing.
func (r *Report) Succeeded() bool {
	return r.Status != StatusRejected
}

// EntityTypes lists entity types with at least one processed record, in dependency order.
func (r *Report) EntityTypes() []string {
	var out []string
	for _, entity := range entities.EntityOrder {
		if _, ok := r.Entities[entity]; ok {
			out = append(out, entity)
		}
	}
	return out
}
