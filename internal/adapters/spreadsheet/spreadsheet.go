// Package spreadsheet implements the institution workbook format: a single
// worksheet with one row per course section. The format is bidirectional but
// lossy; only the columns in Columns survive a round trip.
package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
)

const (
	AdapterID = "institution_xlsx"
	SheetName = "Course Records"
)

// Columns is the fixed header row of the worksheet.
var Columns = []string{
	"Course", "Title", "Department", "Credits", "Term", "Section",
	"Instructor", "Email", "Enrollment", "Status", "A", "B", "C", "D", "F",
}

var columnFields = map[string]string{
	"course":     adapters.FieldCourseNumber,
	"title":      adapters.FieldCourseTitle,
	"department": adapters.FieldDepartment,
	"credits":    adapters.FieldCreditHours,
	"term":       adapters.FieldTermName,
	"section":    adapters.FieldSectionNumber,
	"instructor": adapters.FieldInstructorName,
	"email":      adapters.FieldInstructorEmail,
	"enrollment": adapters.FieldEnrollment,
	"status":     adapters.FieldStatus,
}

type Adapter struct {
	adapters.Base
	fields map[string]string
}

func NewAdapter() *Adapter {
	fields := make(map[string]string, len(columnFields)+len(entities.GradeLetters))
	for k, v := range columnFields {
		fields[k] = v
	}
	for _, letter := range entities.GradeLetters {
		fields[strings.ToLower(letter)] = adapters.GradeField(letter)
	}
	return &Adapter{Base: adapters.NewBase(".xlsx"), fields: fields}
}

func (a *Adapter) Info() adapters.Info {
	return adapters.Info{
		ID:               AdapterID,
		Name:             "Institution Course Workbook (Excel)",
		Description:      "Single worksheet, one row per course section with letter grade counts",
		SupportedFormats: a.SupportedFormats,
		DataTypes: []string{
			entities.EntityUsers,
			entities.EntityCourses,
			entities.EntityTerms,
			entities.EntityCourseOfferings,
			entities.EntityCourseSections,
		},
		FormatVersion: "1.0",
		Bidirectional: true,
		SecurityNotes: "Carries instructor names and emails only. Imported instructors are created pending.",
	}
}

func (a *Adapter) ValidateFileCompatibility(path string) (bool, string) {
	result := a.ValidateBasics(path)
	if result.HasErrors() {
		return result.Outcome()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.AddError("file is not a valid Excel workbook")
		return result.Outcome()
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		result.AddError("workbook has no worksheets")
		return result.Outcome()
	}
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) == 0 {
		result.AddError(fmt.Sprintf("worksheet %q has no header row", sheet))
		return result.Outcome()
	}
	if !a.hasCourseColumn(rows[0]) {
		result.AddError(fmt.Sprintf("worksheet %q has no Course column", sheet))
		return result.Outcome()
	}
	if sheet != SheetName {
		result.AddWarning(fmt.Sprintf("no %q worksheet, reading %q", SheetName, sheet))
	}
	result.Message = fmt.Sprintf("Course workbook, worksheet %q", sheet)
	return result.Outcome()
}

func (a *Adapter) DetectDataTypes(path string) ([]string, error) {
	result, err := a.Parse(path, adapters.Options{})
	if err != nil {
		return nil, err
	}
	return result.Types(), nil
}

// Parse maps the header row by name and normalizes every data row into
// courses, terms, offerings, sections and instructors.
func (a *Adapter) Parse(path string, opts adapters.Options) (*adapters.ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	result := adapters.NewParseResult()
	if len(rows) == 0 {
		return result, nil
	}

	flat, warnings := a.ParseRows(rows)
	for _, w := range warnings {
		w.Entity = AdapterID
		result.Warn(w)
	}
	adapters.NormalizeCourseRecords(AdapterID, flat, opts, result)
	return result, nil
}

// ParseRows turns worksheet rows (header first) into flat course records.
// Trailing empty cells may be missing from a row; absent cells read as empty.
func (a *Adapter) ParseRows(rows [][]string) ([]entities.Record, []adapters.Warning) {
	var warnings []adapters.Warning

	header := rows[0]
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}
		field, ok := a.fields[strings.ToLower(name)]
		if !ok {
			warnings = append(warnings, adapters.Warning{Line: 1, Field: name, Message: "unknown column ignored"})
			continue
		}
		columns[i] = field
	}

	var records []entities.Record
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		rec := entities.Record{}
		for i, field := range columns {
			if field == "" || i >= len(row) {
				continue
			}
			if value := strings.TrimSpace(row[i]); value != "" {
				rec[field] = value
			}
		}
		if len(rec) == 0 {
			continue
		}
		if rec.String(adapters.FieldCourseNumber) == "" {
			warnings = append(warnings, adapters.Warning{Line: r + 1, Message: "row has no course number; skipped"})
			continue
		}
		records = append(records, rec)
	}
	return records, warnings
}

func (a *Adapter) hasCourseColumn(header []string) bool {
	for _, h := range header {
		if a.fields[strings.ToLower(strings.TrimSpace(h))] == adapters.FieldCourseNumber {
			return true
		}
	}
	return false
}

// pickSheet prefers the named worksheet and falls back to the first one.
func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if s == SheetName {
			return s
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	return sheets[0]
}

var _ adapters.Adapter = (*Adapter)(nil)
