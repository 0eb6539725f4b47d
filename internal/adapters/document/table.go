package document

import (
	"fmt"
	"strings"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/docx"
	"github.com/mrlokans/courserecords/internal/entities"
)

const TableAdapterID = "nursing_docx"

// TableAdapter reads the first table of a document. Row 0 is the header; every
// following row is one section.
type TableAdapter struct {
	adapters.Base
	headers map[string]string
}

func NewTableAdapter() *TableAdapter {
	return &TableAdapter{
		Base: adapters.NewBase(".docx"),
		headers: map[string]string{
			"course number":    adapters.FieldCourseNumber,
			"course":           adapters.FieldCourseNumber,
			"course #":         adapters.FieldCourseNumber,
			"title":            adapters.FieldCourseTitle,
			"course title":     adapters.FieldCourseTitle,
			"department":       adapters.FieldDepartment,
			"credit hours":     adapters.FieldCreditHours,
			"credits":          adapters.FieldCreditHours,
			"term":             adapters.FieldTermName,
			"semester":         adapters.FieldTermName,
			"section":          adapters.FieldSectionNumber,
			"instructor":       adapters.FieldInstructorName,
			"faculty":          adapters.FieldInstructorName,
			"instructor email": adapters.FieldInstructorEmail,
			"email":            adapters.FieldInstructorEmail,
			"enrollment":       adapters.FieldEnrollment,
			"students":         adapters.FieldEnrollment,
			"status":           adapters.FieldStatus,
			"grades":           adapters.FieldGrades,
		},
	}
}

func (a *TableAdapter) Info() adapters.Info {
	return adapters.Info{
		ID:               TableAdapterID,
		Name:             "Nursing Course Table (Word)",
		Description:      "First table of the document, header row followed by one row per section",
		SupportedFormats: a.SupportedFormats,
		DataTypes:        producedTypes,
		FormatVersion:    "1.0",
		Bidirectional:    false,
		SecurityNotes:    "Import only. Instructors are created as pending users without credentials.",
	}
}

func (a *TableAdapter) ValidateFileCompatibility(path string) (bool, string) {
	return validateDocument(a.Base, path)
}

func (a *TableAdapter) DetectDataTypes(path string) ([]string, error) {
	return detectDocumentTypes(TableAdapterID, a, path)
}

func (a *TableAdapter) Parse(path string, opts adapters.Options) (*adapters.ParseResult, error) {
	return parseDocumentFile(TableAdapterID, a, path, opts)
}

func (a *TableAdapter) Export(map[string][]entities.Record, string, adapters.Options) (adapters.ExportResult, error) {
	return exportNotSupported(TableAdapterID)
}

// ParseDocument maps the first table into flat records. Rows shorter than the
// header and rows without a course number are skipped with a warning.
func (a *TableAdapter) ParseDocument(doc *docx.Document) ([]entities.Record, []adapters.Warning) {
	var warnings []adapters.Warning

	if len(doc.Tables) == 0 {
		return nil, []adapters.Warning{{Message: "document contains no table"}}
	}
	table := doc.Tables[0]
	if len(table.Rows) == 0 {
		return nil, []adapters.Warning{{Message: "table is empty"}}
	}

	header := table.Rows[0]
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		field, ok := a.headers[name]
		if !ok {
			warnings = append(warnings, adapters.Warning{Line: 1, Field: strings.TrimSpace(h), Message: "unmapped column ignored"})
			continue
		}
		columns[i] = field
	}

	var records []entities.Record
	for r := 1; r < len(table.Rows); r++ {
		row := table.Rows[r]
		lineNum := r + 1

		if len(row) < len(header) {
			warnings = append(warnings, adapters.Warning{Line: lineNum,
				Message: fmt.Sprintf("row has %d cells, header has %d; skipped", len(row), len(header))})
			continue
		}

		rec := entities.Record{}
		for i, field := range columns {
			if field == "" {
				continue
			}
			value := strings.TrimSpace(row[i])
			if field == adapters.FieldGrades {
				grades, gradeWarnings := adapters.ParseGrades(value)
				for k, v := range grades {
					rec[k] = v
				}
				for _, w := range gradeWarnings {
					w.Line = lineNum
					warnings = append(warnings, w)
				}
				continue
			}
			if value != "" {
				rec[field] = value
			}
		}

		if rec.String(adapters.FieldCourseNumber) == "" {
			warnings = append(warnings, adapters.Warning{Line: lineNum, Message: "row has no course number; skipped"})
			continue
		}
		records = append(records, rec)
	}

	return records, warnings
}

var _ adapters.Adapter = (*TableAdapter)(nil)
