package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
)

// Row is one worksheet line.
type Row struct {
	Course     string
	Title      string
	Department string
	Credits    string
	Term       string
	Section    string
	Instructor string
	Email      string
	Enrollment string
	Status     string
	Grades     map[string]string
}

func (r Row) values() []any {
	out := []any{
		r.Course, r.Title, r.Department, number(r.Credits), r.Term, r.Section,
		r.Instructor, r.Email, number(r.Enrollment), r.Status,
	}
	for _, letter := range entities.GradeLetters {
		out = append(out, number(r.Grades[letter]))
	}
	return out
}

// number writes counts as numeric cells; anything else stays text.
func number(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// Export source labels reported in the export message.
const (
	SourceSections  = "sections"
	SourceOfferings = "offerings"
	SourceCourses   = "courses"
)

type lookup struct {
	courses   map[string]entities.Record
	terms     map[string]entities.Record
	offerings map[string]entities.Record
	users     map[string]entities.Record
}

func index(records []entities.Record) map[string]entities.Record {
	out := make(map[string]entities.Record, len(records))
	for _, rec := range records {
		if id := adapters.FormatValue("id", rec["id"]); id != "" {
			out[id] = rec
		}
	}
	return out
}

func text(rec entities.Record, field string) string {
	if rec == nil {
		return ""
	}
	return adapters.FormatValue(field, rec[field])
}

// BuildRows produces worksheet rows, preferring persisted sections, then
// offerings, then a course x instructor synthesis so that the export is never
// empty while courses exist.
func BuildRows(records map[string][]entities.Record) ([]Row, string) {
	l := lookup{
		courses:   index(records[entities.EntityCourses]),
		terms:     index(records[entities.EntityTerms]),
		offerings: index(records[entities.EntityCourseOfferings]),
		users:     index(records[entities.EntityUsers]),
	}

	if rows := l.fromSections(records[entities.EntityCourseSections]); len(rows) > 0 {
		return rows, SourceSections
	}
	if rows := l.fromOfferings(records[entities.EntityCourseOfferings]); len(rows) > 0 {
		return rows, SourceOfferings
	}
	return l.fromCourses(records[entities.EntityCourses], records[entities.EntityUsers]), SourceCourses
}

func courseRow(course entities.Record) Row {
	return Row{
		Course:     text(course, "course_number"),
		Title:      text(course, "course_title"),
		Department: text(course, "department"),
		Credits:    text(course, "credit_hours"),
	}
}

func withInstructor(row Row, user entities.Record) Row {
	if user == nil {
		return row
	}
	row.Instructor = displayName(user)
	row.Email = text(user, "email")
	return row
}

func (l lookup) fromSections(sections []entities.Record) []Row {
	var rows []Row
	for _, section := range sections {
		offering := l.offerings[text(section, "offering_id")]
		if offering == nil {
			continue
		}
		course := l.courses[text(offering, "course_id")]
		if course == nil {
			continue
		}

		row := courseRow(course)
		row.Term = text(l.terms[text(offering, "term_id")], "term_name")
		row.Section = text(section, "section_number")
		row.Enrollment = text(section, "enrollment")
		row.Status = text(section, "status")
		row.Grades = grades(section["grade_distribution"])
		row = withInstructor(row, l.users[text(section, "instructor_id")])
		rows = append(rows, row)
	}
	return rows
}

func (l lookup) fromOfferings(offerings []entities.Record) []Row {
	var rows []Row
	for _, offering := range offerings {
		course := l.courses[text(offering, "course_id")]
		if course == nil {
			continue
		}

		row := courseRow(course)
		row.Term = text(l.terms[text(offering, "term_id")], "term_name")
		row.Section = adapters.DefaultSectionNumber
		row.Enrollment = text(offering, "total_enrollment")
		row.Status = text(offering, "status")
		rows = append(rows, row)
	}
	return rows
}

func (l lookup) fromCourses(courses, users []entities.Record) []Row {
	var instructors []entities.Record
	for _, u := range users {
		if text(u, "role") == entities.RoleInstructor {
			instructors = append(instructors, u)
		}
	}
	if len(instructors) == 0 {
		instructors = users
	}

	var rows []Row
	for _, course := range courses {
		base := courseRow(course)
		base.Section = adapters.DefaultSectionNumber
		base.Enrollment = "0"
		if len(instructors) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, user := range instructors {
			rows = append(rows, withInstructor(base, user))
		}
	}
	return rows
}

func displayName(user entities.Record) string {
	if name := text(user, "display_name"); name != "" {
		return name
	}
	return strings.TrimSpace(text(user, "first_name") + " " + text(user, "last_name"))
}

func grades(value any) map[string]string {
	dist := adapters.DecodeObject(value)
	if len(dist) == 0 {
		return nil
	}
	out := make(map[string]string, len(dist))
	for letter, count := range dist {
		out[strings.ToUpper(letter)] = adapters.FormatValue("", count)
	}
	return out
}

func styleHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(Columns))
	if err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, "A1", lastCol+"1", style)
}

// Export writes the rows built by BuildRows to a single-sheet workbook.
func (a *Adapter) Export(records map[string][]entities.Record, outputPath string, opts adapters.Options) (adapters.ExportResult, error) {
	rows, source := BuildRows(records)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return adapters.ExportResult{}, fmt.Errorf("failed to name worksheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return adapters.ExportResult{}, fmt.Errorf("failed to write header: %w", err)
	}
	if err := styleHeader(f); err != nil {
		return adapters.ExportResult{}, fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return adapters.ExportResult{}, err
		}
		values := row.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return adapters.ExportResult{}, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return adapters.ExportResult{}, fmt.Errorf("failed to save workbook: %w", err)
	}

	return adapters.ExportResult{
		Success:     true,
		Message:     fmt.Sprintf("exported %d rows from %s", len(rows), source),
		RecordCount: len(rows),
	}, nil
}
