package importers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/services"
)

// memoryStore is an in-memory services.RecordStore.
type memoryStore struct {
	records map[string][]entities.Record
	writes  int
	nextID  int
	failOn  func(entity string, rec entities.Record) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string][]entities.Record)}
}

func (s *memoryStore) FindByNaturalKey(_ context.Context, entity string, rec entities.Record) (entities.Record, bool, error) {
	key := services.NaturalKey(entity, rec)
	for _, stored := range s.records[entity] {
		if services.NaturalKey(entity, stored) == key {
			return stored.Clone(), true, nil
		}
	}
	return nil, false, nil
}

func (s *memoryStore) Exists(_ context.Context, entity, id string) (bool, error) {
	for _, stored := range s.records[entity] {
		if stored["id"] == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Create(_ context.Context, entity string, rec entities.Record) (string, error) {
	if s.failOn != nil {
		if err := s.failOn(entity, rec); err != nil {
			return "", err
		}
	}
	s.writes++
	rec = rec.Clone()
	id := ""
	if entities.HasOwnID(entity) {
		id = rec.String("id")
		if id == "" {
			s.nextID++
			id = fmt.Sprintf("gen-%d", s.nextID)
			rec["id"] = id
		}
	}
	s.records[entity] = append(s.records[entity], rec)
	return id, nil
}

func (s *memoryStore) Update(_ context.Context, entity, id string, rec entities.Record) error {
	if s.failOn != nil {
		if err := s.failOn(entity, rec); err != nil {
			return err
		}
	}
	s.writes++
	for _, stored := range s.records[entity] {
		if stored["id"] == id {
			for k, v := range rec {
				if k != "id" {
					stored[k] = v
				}
			}
			return nil
		}
	}
	return fmt.Errorf("%s %s not found", entity, id)
}

func (s *memoryStore) List(_ context.Context, entity, institutionID string) ([]entities.Record, error) {
	return s.records[entity], nil
}

func (s *memoryStore) seed(entity string, rec entities.Record) {
	s.records[entity] = append(s.records[entity], rec)
}

type stubAdapter struct {
	id         string
	compatible bool
	message    string
	result     *adapters.ParseResult
	parseErr   error
	parsed     int
}

func (a *stubAdapter) Info() adapters.Info { return adapters.Info{ID: a.id} }

func (a *stubAdapter) ValidateFileCompatibility(string) (bool, string) {
	return a.compatible, a.message
}

func (a *stubAdapter) DetectDataTypes(string) ([]string, error) { return a.result.Types(), nil }

func (a *stubAdapter) Parse(string, adapters.Options) (*adapters.ParseResult, error) {
	a.parsed++
	if a.parseErr != nil {
		return nil, a.parseErr
	}
	// Callers must not be able to mutate the fixture between runs.
	out := adapters.NewParseResult()
	for entity, recs := range a.result.Entities {
		for _, rec := range recs {
			out.Add(entity, rec.Clone())
		}
	}
	out.Warnings = append(out.Warnings, a.result.Warnings...)
	return out, nil
}

func (a *stubAdapter) Export(map[string][]entities.Record, string, adapters.Options) (adapters.ExportResult, error) {
	return adapters.ExportResult{}, adapters.ErrNotImplemented
}

type recorderSpy struct {
	reports []*Report
}

func (r *recorderSpy) RecordImport(_ context.Context, report *Report) {
	r.reports = append(r.reports, report)
}

func batch() *adapters.ParseResult {
	result := adapters.NewParseResult()
	result.Add(entities.EntityInstitutions, entities.Record{"id": "f-inst", "name": "Mock U", "short_name": "MOCK", "is_active": "true"})
	result.Add(entities.EntityUsers, entities.Record{
		"id": "f-user", "email": "ann@mock.edu", "role": "instructor", "institution_id": "f-inst",
		"password_hash": "$2a$10$secret", "api_token": "tok", "account_status": "active",
	})
	result.Add(entities.EntityCourses, entities.Record{"id": "f-course", "course_number": "BIO-101", "credit_hours": "3", "institution_id": "f-inst"})
	result.Add(entities.EntityTerms, entities.Record{"id": "f-term", "term_name": "Fall 2024", "start_date": "2024-08-26", "institution_id": "f-inst"})
	result.Add(entities.EntityCourseOfferings, entities.Record{"id": "f-off", "course_id": "f-course", "term_id": "f-term", "institution_id": "f-inst"})
	result.Add(entities.EntityCourseSections, entities.Record{
		"id": "f-sec", "offering_id": "f-off", "section_number": "001", "instructor_id": "f-user",
		"enrollment": "20", "grade_distribution": `{"A":12,"B":8}`,
	})
	result.Warn(adapters.Warning{Entity: "users", Line: 2, Field: "password_hash", Message: "sensitive column dropped"})
	return result
}

func newTestOrchestrator(store *memoryStore, adapter *stubAdapter, recorder Recorder) *Orchestrator {
	return NewOrchestrator(Config{
		Registry: adapters.NewRegistry(adapter),
		Store:    store,
		Recorder: recorder,
		Logger:   zerolog.Nop(),
	})
}

func compatible(result *adapters.ParseResult) *stubAdapter {
	return &stubAdapter{id: "stub", compatible: true, result: result}
}

func TestImport_CreatesEverything(t *testing.T) {
	store := newMemoryStore()
	spy := &recorderSpy{}
	report, err := newTestOrchestrator(store, compatible(batch()), spy).
		Import(context.Background(), "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusSucceeded, report.Status)
	assert.Equal(t, adapters.UseTheirs, report.Strategy)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 6, report.Created)
	assert.Empty(t, report.Errors)
	assert.Len(t, report.Warnings, 1)
	assert.Equal(t, 1, report.Entities[entities.EntityCourseSections].Created)
	assert.Equal(t, []string{
		entities.EntityInstitutions, entities.EntityUsers, entities.EntityCourses,
		entities.EntityTerms, entities.EntityCourseOfferings, entities.EntityCourseSections,
	}, report.EntityTypes())
	assert.Contains(t, report.Message, "imported 6 records")

	user := store.records[entities.EntityUsers][0]
	assert.Equal(t, entities.AccountStatusPending, user["account_status"])
	for _, field := range entities.SensitiveFields {
		assert.NotContains(t, user, field)
	}

	course := store.records[entities.EntityCourses][0]
	assert.Equal(t, 3, course["credit_hours"])

	section := store.records[entities.EntityCourseSections][0]
	assert.Equal(t, map[string]any{"A": float64(12), "B": float64(8)}, section["grade_distribution"])

	require.Len(t, spy.reports, 1)
	assert.Same(t, report, spy.reports[0])
}

func TestImport_ConflictStrategies(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	adapter := compatible(batch())
	o := newTestOrchestrator(store, adapter, nil)

	_, err := o.Import(ctx, "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)
	writes := store.writes

	adapter.result.Entities[entities.EntityCourses][0]["credit_hours"] = "4"

	t.Run("use_mine keeps persisted records", func(t *testing.T) {
		report, err := o.Import(ctx, "stub", "in.zip", adapters.Options{ConflictStrategy: adapters.UseMine})
		require.NoError(t, err)

		assert.Equal(t, 6, report.Skipped)
		assert.Zero(t, report.Created+report.Updated)
		assert.Equal(t, writes, store.writes)
		assert.Equal(t, 3, store.records[entities.EntityCourses][0]["credit_hours"])
	})

	t.Run("use_theirs overwrites", func(t *testing.T) {
		store.records[entities.EntityUsers][0]["account_status"] = "active"

		report, err := o.Import(ctx, "stub", "in.zip", adapters.Options{ConflictStrategy: "USE_THEIRS"})
		require.NoError(t, err)

		assert.Equal(t, 6, report.Updated)
		assert.Len(t, store.records[entities.EntityCourses], 1)
		assert.Equal(t, 4, store.records[entities.EntityCourses][0]["credit_hours"])
		assert.Equal(t, "active", store.records[entities.EntityUsers][0]["account_status"])
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := o.Import(ctx, "stub", "in.zip", adapters.Options{ConflictStrategy: "merge"})
		assert.Error(t, err)
	})
}

func TestImport_DryRun(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.seed(entities.EntityInstitutions, entities.Record{"id": "db-inst", "short_name": "MOCK"})
	spy := &recorderSpy{}
	o := newTestOrchestrator(store, compatible(batch()), spy)

	first, err := o.Import(ctx, "stub", "in.zip", adapters.Options{DryRun: true})
	require.NoError(t, err)
	second, err := o.Import(ctx, "stub", "in.zip", adapters.Options{DryRun: true})
	require.NoError(t, err)

	assert.Zero(t, store.writes)
	assert.Len(t, store.records[entities.EntityInstitutions], 1)
	assert.Empty(t, spy.reports)

	assert.True(t, first.DryRun)
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 5, first.Created)
	assert.Empty(t, first.Errors)
	assert.Contains(t, first.Message, "dry run")
	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, first.Total, second.Total)
}

func TestImport_RemapsReferencesOntoPersistedIDs(t *testing.T) {
	store := newMemoryStore()
	store.seed(entities.EntityInstitutions, entities.Record{"id": "db-inst", "short_name": "MOCK"})
	store.seed(entities.EntityCourses, entities.Record{"id": "db-course", "course_number": "BIO-101", "institution_id": "db-inst"})

	report, err := newTestOrchestrator(store, compatible(batch()), nil).
		Import(context.Background(), "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, report.Status)
	assert.Equal(t, 2, report.Updated)

	offering := store.records[entities.EntityCourseOfferings][0]
	assert.Equal(t, "db-course", offering["course_id"])
	assert.Equal(t, "f-term", offering["term_id"])
	assert.Equal(t, "db-inst", offering["institution_id"])

	user := store.records[entities.EntityUsers][0]
	assert.Equal(t, "db-inst", user["institution_id"])
}

func TestImport_DefaultsInstitution(t *testing.T) {
	store := newMemoryStore()
	store.seed(entities.EntityInstitutions, entities.Record{"id": "inst-1", "short_name": "MOCK"})

	result := adapters.NewParseResult()
	result.Add(entities.EntityCourses, entities.Record{"course_number": "BIO-101"})
	result.Add(entities.EntityCourses, entities.Record{"course_number": "BIO-102", "institution_id": "elsewhere"})

	report, err := newTestOrchestrator(store, compatible(result), nil).
		Import(context.Background(), "stub", "in.docx", adapters.Options{InstitutionID: "inst-1"})
	require.NoError(t, err)

	assert.Equal(t, StatusSucceededWithErrors, report.Status)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "gen-1", store.records[entities.EntityCourses][0]["id"])
	assert.Equal(t, "inst-1", store.records[entities.EntityCourses][0]["institution_id"])
	require.Len(t, report.Errors, 1)
	assert.Equal(t, RecordError{
		Entity: entities.EntityCourses,
		Index:  2,
		Key:    "BIO-102|elsewhere",
		Reason: `institution_id references unknown institutions "elsewhere"`,
	}, report.Errors[0])
}

func TestImport_OptionalReferenceDropped(t *testing.T) {
	store := newMemoryStore()
	store.seed(entities.EntityCourseOfferings, entities.Record{"id": "db-off", "course_id": "db-course", "term_id": "db-term"})
	result := adapters.NewParseResult()
	result.Add(entities.EntityCourseSections, entities.Record{"offering_id": "db-off", "section_number": "001", "instructor_id": "ghost"})

	report, err := newTestOrchestrator(store, compatible(result), nil).
		Import(context.Background(), "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Created)
	assert.NotContains(t, store.records[entities.EntityCourseSections][0], "instructor_id")
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, `course_sections line 1 [instructor_id]: unknown users "ghost" dropped`, report.Warnings[0].String())
}

func TestImport_RequiresInstitution(t *testing.T) {
	store := newMemoryStore()
	result := adapters.NewParseResult()
	adapters.NormalizeCourseRecords("test", []entities.Record{
		{"course_number": "BIO-101", "term_name": "Fall 2024", "section_number": "01", "instructor_email": "ann@x.edu"},
	}, adapters.Options{}, result)

	report, err := newTestOrchestrator(store, compatible(result), nil).
		Import(context.Background(), "stub", "in.docx", adapters.Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusSucceededWithErrors, report.Status)
	assert.Zero(t, report.Created)
	assert.Equal(t, 5, report.Errored)
	assert.Zero(t, store.writes)

	reasons := make(map[string]string)
	for _, e := range report.Errors {
		reasons[e.Entity] = e.Reason
	}
	for _, entity := range []string{entities.EntityUsers, entities.EntityCourses, entities.EntityTerms} {
		assert.Equal(t, "institution_id is required", reasons[entity], entity)
	}
	assert.Contains(t, reasons[entities.EntityCourseOfferings], "course_id references unknown courses")
	assert.Contains(t, reasons[entities.EntityCourseSections], "offering_id references unknown course_offerings")
}

func TestImport_MissingNaturalKeyNeverMatches(t *testing.T) {
	store := newMemoryStore()
	store.seed(entities.EntityInstitutions, entities.Record{"id": "db-north", "name": "North College"})
	result := adapters.NewParseResult()
	result.Add(entities.EntityInstitutions, entities.Record{"id": "f-south", "name": "South College"})
	result.Add(entities.EntityInstitutions, entities.Record{"id": "f-east", "name": "East College", "short_name": "  "})

	report, err := newTestOrchestrator(store, compatible(result), nil).
		Import(context.Background(), "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)

	assert.Zero(t, report.Created+report.Updated)
	assert.Equal(t, 2, report.Errored)
	assert.Equal(t, "missing natural key field short_name", report.Errors[0].Reason)
	assert.Zero(t, store.writes)
	require.Len(t, store.records[entities.EntityInstitutions], 1)
	assert.Equal(t, "North College", store.records[entities.EntityInstitutions][0]["name"])
}

func TestImport_DryRunMatchesRealRunOnDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	result := adapters.NewParseResult()
	result.Add(entities.EntityInstitutions, entities.Record{"id": "f-a1", "name": "First A", "short_name": "A"})
	result.Add(entities.EntityInstitutions, entities.Record{"id": "f-a2", "name": "Second A", "short_name": "A"})
	result.Add(entities.EntityCourses, entities.Record{"course_number": "BIO-101", "institution_id": "f-a2"})

	for _, strategy := range []adapters.ConflictStrategy{adapters.UseTheirs, adapters.UseMine} {
		t.Run(string(strategy), func(t *testing.T) {
			dryStore := newMemoryStore()
			dry, err := newTestOrchestrator(dryStore, compatible(result), nil).
				Import(ctx, "stub", "in.zip", adapters.Options{ConflictStrategy: strategy, DryRun: true})
			require.NoError(t, err)

			applied, err := newTestOrchestrator(newMemoryStore(), compatible(result), nil).
				Import(ctx, "stub", "in.zip", adapters.Options{ConflictStrategy: strategy})
			require.NoError(t, err)

			assert.Zero(t, dryStore.writes)
			assert.Equal(t, 2, applied.Created)
			assert.Equal(t, applied.Entities, dry.Entities)
			assert.Equal(t, applied.Created, dry.Created)
			assert.Equal(t, applied.Updated, dry.Updated)
			assert.Equal(t, applied.Skipped, dry.Skipped)
			assert.Empty(t, dry.Errors)
		})
	}
}

func TestImport_RecordFailuresDoNotAbort(t *testing.T) {
	store := newMemoryStore()
	store.failOn = func(entity string, rec entities.Record) error {
		if entity == entities.EntityTerms {
			return errors.New("constraint failed")
		}
		return nil
	}
	result := batch()
	result.Add(entities.EntityCourses, entities.Record{"course_number": "BIO-200", "credit_hours": "lots", "institution_id": "f-inst"})

	report, err := newTestOrchestrator(store, compatible(result), nil).
		Import(context.Background(), "stub", "in.zip", adapters.Options{})
	require.NoError(t, err)

	assert.Equal(t, StatusSucceededWithErrors, report.Status)
	assert.Equal(t, 7, report.Total)
	// The term and the offering and section depending on it are lost.
	assert.Equal(t, 4, report.Errored)
	assert.Equal(t, 3, report.Created)

	reasons := make(map[string]string)
	for _, e := range report.Errors {
		reasons[e.Entity] = e.Reason
	}
	assert.Equal(t, "terms Fall 2024|f-inst: constraint failed", reasons[entities.EntityTerms])
	assert.Equal(t, `term_id references unknown terms "f-term"`, reasons[entities.EntityCourseOfferings])
	assert.Contains(t, reasons[entities.EntityCourses], `credit_hours: invalid integer "lots"`)
}

func TestImport_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("incompatible file", func(t *testing.T) {
		store := newMemoryStore()
		spy := &recorderSpy{}
		adapter := &stubAdapter{id: "stub", message: "archive has no manifest.json", result: batch()}

		report, err := newTestOrchestrator(store, adapter, spy).Import(ctx, "stub", "in.zip", adapters.Options{})

		var compatErr *adapters.CompatibilityError
		require.ErrorAs(t, err, &compatErr)
		assert.Equal(t, "archive has no manifest.json", compatErr.Reason)
		require.NotNil(t, report)
		assert.Equal(t, StatusRejected, report.Status)
		assert.False(t, report.Succeeded())
		assert.Equal(t, "archive has no manifest.json", report.Message)
		assert.Zero(t, adapter.parsed)
		assert.Zero(t, store.writes)
		assert.Len(t, spy.reports, 1)
	})

	t.Run("structural parse failure", func(t *testing.T) {
		store := newMemoryStore()
		cause := errors.New("zip: not a valid zip file")
		adapter := &stubAdapter{id: "stub", compatible: true, parseErr: cause}

		report, err := newTestOrchestrator(store, adapter, nil).Import(ctx, "stub", "in.zip", adapters.Options{})

		assert.ErrorIs(t, err, cause)
		require.NotNil(t, report)
		assert.Equal(t, StatusRejected, report.Status)
		assert.Zero(t, store.writes)
	})

	t.Run("not implemented propagates", func(t *testing.T) {
		adapter := &stubAdapter{id: "stub", compatible: true, parseErr: adapters.ErrNotImplemented}

		report, err := newTestOrchestrator(newMemoryStore(), adapter, nil).Import(ctx, "stub", "in.zip", adapters.Options{})

		assert.Nil(t, report)
		assert.Same(t, adapters.ErrNotImplemented, err)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		_, err := newTestOrchestrator(newMemoryStore(), compatible(batch()), nil).Import(ctx, "nope", "in.zip", adapters.Options{})
		assert.ErrorIs(t, err, adapters.ErrUnknownAdapter)
	})
}
