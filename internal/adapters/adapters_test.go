package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/courserecords/internal/entities"
)

func TestParseGrades(t *testing.T) {
	t.Run("full distribution", func(t *testing.T) {
		fields, warnings := ParseGrades("A=5, B=15, C=8, D=1, F=1")

		assert.Empty(t, warnings)
		assert.Equal(t, map[string]string{
			"grade_a": "5", "grade_b": "15", "grade_c": "8", "grade_d": "1", "grade_f": "1",
		}, fields)
	})

	t.Run("N/A and empty yield nothing", func(t *testing.T) {
		for _, raw := range []string{"N/A", "n/a", "", "   "} {
			fields, warnings := ParseGrades(raw)
			assert.Empty(t, fields, raw)
			assert.Empty(t, warnings, raw)
		}
	})

	t.Run("bad pairs are skipped individually", func(t *testing.T) {
		fields, warnings := ParseGrades("a=3, X=1, B=two, C")

		assert.Equal(t, map[string]string{"grade_a": "3"}, fields)
		require.Len(t, warnings, 3)
		for _, w := range warnings {
			assert.Equal(t, "grades", w.Field)
		}
	})

	t.Run("negative count is invalid", func(t *testing.T) {
		fields, warnings := ParseGrades("A=-1")

		assert.Empty(t, fields)
		require.Len(t, warnings, 1)
	})
}

func TestGradeDistributionJSON(t *testing.T) {
	assert.Equal(t, "", GradeDistributionJSON(entities.Record{"course_number": "X"}))
	assert.JSONEq(t, `{"A":2,"F":1}`, GradeDistributionJSON(entities.Record{"grade_a": "2", "grade_f": "1"}))
}

func TestParseConflictStrategy(t *testing.T) {
	s, err := ParseConflictStrategy("", UseMine)
	require.NoError(t, err)
	assert.Equal(t, UseMine, s)

	s, err = ParseConflictStrategy(" USE_THEIRS ", UseMine)
	require.NoError(t, err)
	assert.Equal(t, UseTheirs, s)

	_, err = ParseConflictStrategy("merge", UseTheirs)
	assert.Error(t, err)
}

func TestWarningString(t *testing.T) {
	assert.Equal(t, "courses line 4 [credit_hours]: not a number",
		Warning{Entity: "courses", Line: 4, Field: "credit_hours", Message: "not a number"}.String())
	assert.Equal(t, "plain", Warning{Message: "plain"}.String())
}

func TestValidationResult(t *testing.T) {
	result := NewValidationResult()
	result.AddWarning("looks old")
	ok, msg := result.Outcome()
	assert.True(t, ok)
	assert.Equal(t, "File is compatible", msg)
	assert.False(t, result.HasErrors())

	result.AddError("first")
	result.AddError("second")
	ok, msg = result.Outcome()
	assert.False(t, ok)
	assert.Equal(t, "first", msg)
	assert.False(t, result.IsCompatible)
}

func TestBase_ValidateBasics(t *testing.T) {
	dir := t.TempDir()
	base := NewBase(".csv", ".zip")

	good := filepath.Join(dir, "data.ZIP")
	require.NoError(t, os.WriteFile(good, []byte("content"), 0644))
	assert.False(t, base.ValidateBasics(good).HasErrors())

	empty := filepath.Join(dir, "empty.zip")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	result := base.ValidateBasics(empty)
	require.True(t, result.HasErrors())
	assert.Equal(t, "file is empty", result.Message)

	wrong := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(wrong, []byte("content"), 0644))
	result = base.ValidateBasics(wrong)
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Message, "unsupported file extension")

	result = base.ValidateBasics(filepath.Join(dir, "missing.zip"))
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Message, "file not found")

	small := Base{SupportedFormats: []string{".zip"}, MaxFileSize: 3}
	result = small.ValidateBasics(good)
	require.True(t, result.HasErrors())
	assert.Contains(t, result.Message, "limit")
}

type fakeAdapter struct {
	id string
}

func (f fakeAdapter) Info() Info { return Info{ID: f.id} }
func (f fakeAdapter) ValidateFileCompatibility(string) (bool, string) { return true, "" }
func (f fakeAdapter) DetectDataTypes(string) ([]string, error) { return nil, nil }
func (f fakeAdapter) Parse(string, Options) (*ParseResult, error) {
	return NewParseResult(), nil
}
func (f fakeAdapter) Export(map[string][]entities.Record, string, Options) (ExportResult, error) {
	return ExportResult{}, ErrNotImplemented
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(fakeAdapter{id: "zeta"}, fakeAdapter{id: "alpha"})

	a, err := registry.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", a.Info().ID)

	_, err = registry.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownAdapter)

	assert.Error(t, registry.Register(fakeAdapter{id: "alpha"}))
	assert.Error(t, registry.Register(fakeAdapter{}))

	infos := registry.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].ID)
	assert.Equal(t, "zeta", infos[1].ID)

	assert.Panics(t, func() { NewRegistry(fakeAdapter{id: "x"}, fakeAdapter{id: "x"}) })
}

func TestNormalizeCourseRecords(t *testing.T) {
	opts := Options{InstitutionID: "inst-1"}

	t.Run("decomposes flat rows into entities", func(t *testing.T) {
		result := NewParseResult()
		NormalizeCourseRecords("test", []entities.Record{
			{"course_number": "BIO-101", "course_title": "Biology", "credit_hours": "3",
				"term_name": "Fall 2024", "section_number": "01", "instructor_name": "Ann Lee",
				"instructor_email": "ANN@x.edu", "enrollment": "20", "grade_a": "4"},
			{"course_number": "BIO-101", "term_name": "Fall 2024", "enrollment": "5"},
		}, opts, result)

		assert.Empty(t, result.Warnings)
		courses := result.Entities[entities.EntityCourses]
		require.Len(t, courses, 1)
		assert.Equal(t, StableID(entities.EntityCourses, "inst-1", "BIO-101"), courses[0]["id"])
		assert.Equal(t, "3", courses[0]["credit_hours"])

		sections := result.Entities[entities.EntityCourseSections]
		require.Len(t, sections, 2)
		assert.Equal(t, "assigned", sections[0]["status"])
		assert.Equal(t, `{"A":4}`, sections[0]["grade_distribution"])
		assert.Equal(t, DefaultSectionNumber, sections[1]["section_number"])
		assert.NotContains(t, sections[1], "instructor_id")

		offerings := result.Entities[entities.EntityCourseOfferings]
		require.Len(t, offerings, 1)
		assert.Equal(t, "25", offerings[0]["total_enrollment"])
		assert.Equal(t, "2", offerings[0]["section_count"])
		assert.Equal(t, sections[0]["offering_id"], offerings[0]["id"])

		users := result.Entities[entities.EntityUsers]
		require.Len(t, users, 1)
		assert.Equal(t, "ann@x.edu", users[0]["email"])
		assert.Equal(t, "Lee", users[0]["last_name"])
	})

	t.Run("records without course or term", func(t *testing.T) {
		result := NewParseResult()
		NormalizeCourseRecords("test", []entities.Record{
			{"course_title": "Orphan"},
			{"course_number": "BIO-102"},
			{"course_number": "BIO-103", "term_name": "Fall", "instructor_name": "No Email"},
			{"course_number": "BIO-103", "term_name": "Fall"},
		}, opts, result)

		require.Len(t, result.Warnings, 4)
		assert.Equal(t, 1, result.Warnings[0].Line)
		assert.Equal(t, FieldTermName, result.Warnings[1].Field)
		assert.Equal(t, FieldInstructorEmail, result.Warnings[2].Field)
		assert.Equal(t, FieldSectionNumber, result.Warnings[3].Field)

		assert.Len(t, result.Entities[entities.EntityCourses], 2)
		assert.Len(t, result.Entities[entities.EntityCourseSections], 1)
		assert.Empty(t, result.Entities[entities.EntityUsers])
	})

	t.Run("no institution leaves the field absent", func(t *testing.T) {
		result := NewParseResult()
		NormalizeCourseRecords("test", []entities.Record{
			{"course_number": "BIO-101", "term_name": "Fall 2024", "instructor_email": "ann@x.edu"},
		}, Options{}, result)

		for _, entity := range []string{
			entities.EntityCourses, entities.EntityTerms, entities.EntityUsers, entities.EntityCourseOfferings,
		} {
			require.Len(t, result.Entities[entity], 1, entity)
			assert.NotContains(t, result.Entities[entity][0], "institution_id", entity)
		}
	})
}

func TestParseResultTypes(t *testing.T) {
	result := NewParseResult()
	result.Add(entities.EntityCourseSections, entities.Record{})
	result.Add(entities.EntityInstitutions, entities.Record{})
	result.Add(entities.EntityInstitutions, entities.Record{})

	assert.Equal(t, []string{entities.EntityInstitutions, entities.EntityCourseSections}, result.Types())
	assert.Equal(t, 3, result.Count())
}
