// Package document implements adapters for institution-specific Word layouts.
//
// Both adapters read the text of a .docx through internal/docx, extract flat
// one-row-per-section course records, and normalize them into canonical
// entities with adapters.NormalizeCourseRecords. Neither supports export.
package document

import (
	"fmt"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/docx"
	"github.com/mrlokans/courserecords/internal/entities"
)

var producedTypes = []string{
	entities.EntityUsers,
	entities.EntityCourses,
	entities.EntityTerms,
	entities.EntityCourseOfferings,
	entities.EntityCourseSections,
}

// documentParser extracts flat course records from an opened document.
type documentParser interface {
	ParseDocument(doc *docx.Document) ([]entities.Record, []adapters.Warning)
}

func validateDocument(base adapters.Base, path string) (bool, string) {
	result := base.ValidateBasics(path)
	if !result.HasErrors() && !docx.IsDocument(path) {
		result.AddError("file is not a valid Word document")
	}
	return result.Outcome()
}

func parseDocumentFile(source string, p documentParser, path string, opts adapters.Options) (*adapters.ParseResult, error) {
	doc, err := docx.Open(path)
	if err != nil {
		return nil, err
	}

	records, warnings := p.ParseDocument(doc)

	result := adapters.NewParseResult()
	for _, w := range warnings {
		if w.Entity == "" {
			w.Entity = source
		}
		result.Warn(w)
	}
	adapters.NormalizeCourseRecords(source, records, opts, result)
	return result, nil
}

func detectDocumentTypes(source string, p documentParser, path string) ([]string, error) {
	result, err := parseDocumentFile(source, p, path, adapters.Options{})
	if err != nil {
		return nil, err
	}
	return result.Types(), nil
}

func exportNotSupported(id string) (adapters.ExportResult, error) {
	return adapters.ExportResult{
		Success: false,
		Message: fmt.Sprintf("%s does not support export", id),
	}, adapters.ErrNotImplemented
}
