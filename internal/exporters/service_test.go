package exporters

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/document"
	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/adapters/spreadsheet"
	"github.com/mrlokans/courserecords/internal/entities"
)

type stubReader struct {
	records map[string][]entities.Record
	listed  []string
	scope   string
	err     error
}

func (s *stubReader) FindByNaturalKey(context.Context, string, entities.Record) (entities.Record, bool, error) {
	return nil, false, nil
}

func (s *stubReader) Exists(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *stubReader) List(_ context.Context, entity, institutionID string) ([]entities.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.listed = append(s.listed, entity)
	s.scope = institutionID
	return s.records[entity], nil
}

type recorderSpy struct {
	outcomes []Outcome
}

func (r *recorderSpy) RecordExport(_ context.Context, outcome Outcome) {
	r.outcomes = append(r.outcomes, outcome)
}

func stored() map[string][]entities.Record {
	return map[string][]entities.Record{
		entities.EntityInstitutions: {{"id": "inst-1", "name": "Mock U", "short_name": "MOCK"}},
		entities.EntityUsers: {
			{"id": "u-1", "email": "ann@mock.edu", "role": "instructor", "institution_id": "inst-1"},
			{"id": "u-2", "email": "bo@mock.edu", "role": "instructor", "institution_id": "inst-1"},
		},
		entities.EntityCourses: {{"id": "c-1", "course_number": "BIO-101", "institution_id": "inst-1", "credit_hours": 3}},
	}
}

func newTestService(reader *stubReader, recorder Recorder) *Service {
	s := NewService(Config{
		Registry: adapters.NewRegistry(
			generic.NewAdapter(),
			spreadsheet.NewAdapter(),
			document.NewTextBlockAdapter(),
		),
		Store:    reader,
		Recorder: recorder,
		Logger:   zerolog.Nop(),
	})
	s.now = func() time.Time { return time.Date(2024, 9, 1, 2, 0, 0, 0, time.UTC) }
	return s
}

func TestExport_GenericArchive(t *testing.T) {
	reader := &stubReader{records: stored()}
	spy := &recorderSpy{}
	path := filepath.Join(t.TempDir(), "out.zip")

	result, err := newTestService(reader, spy).Export(context.Background(), generic.AdapterID, "inst-1", path)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 4, result.RecordCount)
	assert.Equal(t, entities.EntityOrder, reader.listed)
	assert.Equal(t, "inst-1", reader.scope)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	var manifest generic.Manifest
	require.NoError(t, json.NewDecoder(rc).Decode(&manifest))
	assert.Equal(t, 2, manifest.EntityCounts[entities.EntityUsers])

	require.Len(t, spy.outcomes, 1)
	assert.Equal(t, Outcome{
		AdapterID: generic.AdapterID, InstitutionID: "inst-1", OutputPath: path, Result: result,
	}, spy.outcomes[0])
}

func TestExport_ListsOnlyDeclaredTypes(t *testing.T) {
	reader := &stubReader{records: stored()}
	path := filepath.Join(t.TempDir(), "out.xlsx")

	result, err := newTestService(reader, nil).Export(context.Background(), spreadsheet.AdapterID, "", path)
	require.NoError(t, err)

	assert.Equal(t, spreadsheet.NewAdapter().Info().DataTypes, reader.listed)
	// Two instructors for the one course.
	assert.Equal(t, 2, result.RecordCount)
}

func TestExport_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("export-less adapter", func(t *testing.T) {
		spy := &recorderSpy{}
		_, err := newTestService(&stubReader{}, spy).Export(ctx, document.TextBlockAdapterID, "", filepath.Join(t.TempDir(), "x.docx"))
		assert.Same(t, adapters.ErrNotImplemented, err)
		assert.Empty(t, spy.outcomes)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		_, err := newTestService(&stubReader{}, nil).Export(ctx, "pdf", "", "x.pdf")
		assert.ErrorIs(t, err, adapters.ErrUnknownAdapter)
	})

	t.Run("store failure", func(t *testing.T) {
		spy := &recorderSpy{}
		cause := errors.New("database is locked")
		path := filepath.Join(t.TempDir(), "out.zip")

		_, err := newTestService(&stubReader{err: cause}, spy).Export(ctx, generic.AdapterID, "", path)
		assert.ErrorIs(t, err, cause)
		assert.NoFileExists(t, path)
		require.Len(t, spy.outcomes, 1)
		assert.ErrorIs(t, spy.outcomes[0].Err, cause)
	})

	t.Run("unwritable output", func(t *testing.T) {
		_, err := newTestService(&stubReader{records: stored()}, nil).
			Export(ctx, generic.AdapterID, "", filepath.Join(t.TempDir(), "missing", "out.zip"))
		assert.Error(t, err)
	})
}

func TestBackup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	spy := &recorderSpy{}
	svc := newTestService(&stubReader{records: stored()}, spy)

	path, result, err := svc.Backup(context.Background(), "inst-1", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inst-1-20240901T020000Z.zip"), path)
	assert.FileExists(t, path)
	assert.True(t, result.Success)

	path, _, err = svc.Backup(context.Background(), "", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "all-"))

	require.Len(t, spy.outcomes, 2)
	assert.True(t, spy.outcomes[0].Backup)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBackup_InstitutionIDCannotEscapeDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	svc := newTestService(&stubReader{records: stored()}, nil)

	path, _, err := svc.Backup(context.Background(), "../../escape", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "escape-20240901T020000Z.zip", filepath.Base(path))
}
