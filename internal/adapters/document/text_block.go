package document

import (
	"fmt"
	"strings"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/docx"
	"github.com/mrlokans/courserecords/internal/entities"
)

const (
	TextBlockAdapterID = "business_docx"

	blockHeading   = "COURSE DATA"
	blockSeparator = "---"
)

// TextBlockAdapter reads documents made of "COURSE DATA" blocks, each followed
// by "Keyword: value" paragraphs:
//
//	COURSE DATA
//	Course: BUS-101
//	Title: Principles of Management
//	Term: Fall 2024
//	Instructor: Dana Reyes
//	Email: dreyes@example.edu
//	Enrollment: 30
//	Grades: A=5, B=15, C=8, D=1, F=1
//	---
type TextBlockAdapter struct {
	adapters.Base
	keywords map[string]string
}

func NewTextBlockAdapter() *TextBlockAdapter {
	return &TextBlockAdapter{
		Base: adapters.NewBase(".docx"),
		keywords: map[string]string{
			"course":           adapters.FieldCourseNumber,
			"course number":    adapters.FieldCourseNumber,
			"title":            adapters.FieldCourseTitle,
			"course title":     adapters.FieldCourseTitle,
			"department":       adapters.FieldDepartment,
			"credits":          adapters.FieldCreditHours,
			"credit hours":     adapters.FieldCreditHours,
			"term":             adapters.FieldTermName,
			"section":          adapters.FieldSectionNumber,
			"instructor":       adapters.FieldInstructorName,
			"instructor email": adapters.FieldInstructorEmail,
			"email":            adapters.FieldInstructorEmail,
			"enrollment":       adapters.FieldEnrollment,
			"students":         adapters.FieldEnrollment,
			"status":           adapters.FieldStatus,
			"grades":           adapters.FieldGrades,
		},
	}
}

func (a *TextBlockAdapter) Info() adapters.Info {
	return adapters.Info{
		ID:               TextBlockAdapterID,
		Name:             "Business Course Report (Word)",
		Description:      "Keyword blocks opened by a COURSE DATA heading, one block per section",
		SupportedFormats: a.SupportedFormats,
		DataTypes:        producedTypes,
		FormatVersion:    "1.0",
		Bidirectional:    false,
		SecurityNotes:    "Import only. Instructors are created as pending users without credentials.",
	}
}

func (a *TextBlockAdapter) ValidateFileCompatibility(path string) (bool, string) {
	return validateDocument(a.Base, path)
}

func (a *TextBlockAdapter) DetectDataTypes(path string) ([]string, error) {
	return detectDocumentTypes(TextBlockAdapterID, a, path)
}

func (a *TextBlockAdapter) Parse(path string, opts adapters.Options) (*adapters.ParseResult, error) {
	return parseDocumentFile(TextBlockAdapterID, a, path, opts)
}

func (a *TextBlockAdapter) Export(map[string][]entities.Record, string, adapters.Options) (adapters.ExportResult, error) {
	return exportNotSupported(TextBlockAdapterID)
}

// ParseDocument scans paragraphs and returns one flat record per block.
// A block is closed by the next heading or by the end of the document.
func (a *TextBlockAdapter) ParseDocument(doc *docx.Document) ([]entities.Record, []adapters.Warning) {
	var (
		records  []entities.Record
		warnings []adapters.Warning
		current  entities.Record
		start    int
	)

	flush := func() {
		if current == nil {
			return
		}
		if len(current) == 0 {
			warnings = append(warnings, adapters.Warning{Line: start, Message: "empty COURSE DATA block, skipped"})
		} else {
			records = append(records, current)
		}
		current = nil
	}

	for i, paragraph := range doc.Paragraphs {
		line := strings.TrimSpace(paragraph)
		lineNum := i + 1

		switch {
		case line == "":
			continue
		case strings.EqualFold(line, blockHeading):
			flush()
			current = entities.Record{}
			start = lineNum
			continue
		case line == blockSeparator:
			// Inert: the block stays open until the next heading or end of document.
			continue
		case current == nil:
			// Preamble before the first heading.
			continue
		}

		keyword, value, found := strings.Cut(line, ":")
		if !found {
			warnings = append(warnings, adapters.Warning{Line: lineNum, Message: fmt.Sprintf("line has no keyword: %q", line)})
			continue
		}

		field, known := a.keywords[strings.ToLower(strings.TrimSpace(keyword))]
		if !known {
			warnings = append(warnings, adapters.Warning{Line: lineNum, Field: strings.TrimSpace(keyword), Message: "unrecognized keyword"})
			continue
		}

		value = strings.TrimSpace(value)
		if field == adapters.FieldGrades {
			grades, gradeWarnings := adapters.ParseGrades(value)
			for k, v := range grades {
				current[k] = v
			}
			for _, w := range gradeWarnings {
				w.Line = lineNum
				warnings = append(warnings, w)
			}
			continue
		}
		if value != "" {
			current[field] = value
		}
	}
	flush()

	return records, warnings
}

var _ adapters.Adapter = (*TextBlockAdapter)(nil)
