package adapters

import (
	"fmt"
	"strings"

	"github.com/mrlokans/courserecords/internal/entities"
)

// Adapter translates one external file format to and from canonical entity records.
//
// Implementations:
//   - document.TextBlockAdapter (business_docx) - keyword blocks in a Word document
//   - document.TableAdapter (nursing_docx) - first table of a Word document
//   - generic.Adapter (generic_csv) - normalized CSV files in a ZIP archive
//   - spreadsheet.Adapter (institution_xlsx) - one-row-per-section workbook
type Adapter interface {
	// Info returns the fixed descriptor of the adapter.
	Info() Info

	// ValidateFileCompatibility performs a cheap structural check without
	// parsing business data. It never panics or errors on malformed input.
	ValidateFileCompatibility(path string) (bool, string)

	// DetectDataTypes lists the entity types the file actually contains.
	DetectDataTypes(path string) ([]string, error)

	// Parse reads the file into canonical records with string values.
	// Field-level anomalies become warnings; structural failures are errors.
	Parse(path string, opts Options) (*ParseResult, error)

	// Export writes records to outputPath. Adapters that cannot export
	// return ErrNotImplemented.
	Export(records map[string][]entities.Record, outputPath string, opts Options) (ExportResult, error)
}

// Info describes an adapter.
type Info struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	SupportedFormats []string `json:"supported_formats"`
	DataTypes        []string `json:"data_types"`
	FormatVersion    string   `json:"format_version"`
	Bidirectional    bool     `json:"bidirectional"`
	SecurityNotes    string   `json:"security_notes,omitempty"`
}

type ConflictStrategy string

const (
	// UseTheirs lets the incoming record overwrite the persisted one.
	UseTheirs ConflictStrategy = "use_theirs"
	// UseMine keeps the persisted record and discards the incoming one.
	UseMine ConflictStrategy = "use_mine"
)

// ParseConflictStrategy validates a strategy name. An empty name yields fallback.
func ParseConflictStrategy(name string, fallback ConflictStrategy) (ConflictStrategy, error) {
	switch ConflictStrategy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return fallback, nil
	case UseTheirs:
		return UseTheirs, nil
	case UseMine:
		return UseMine, nil
	}
	return "", fmt.Errorf("unknown conflict strategy %q (expected %s or %s)", name, UseTheirs, UseMine)
}

// Options are passed through an import or export run.
type Options struct {
	InstitutionID    string           `json:"institution_id,omitempty"`
	ConflictStrategy ConflictStrategy `json:"conflict_strategy,omitempty"`
	DryRun           bool             `json:"dry_run"`
}

// Warning is a field- or record-level anomaly that did not stop parsing.
type Warning struct {
	Entity  string `json:"entity,omitempty"`
	Line    int    `json:"line,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	if w.Entity != "" {
		b.WriteString(w.Entity)
	}
	if w.Line > 0 {
		fmt.Fprintf(&b, " line %d", w.Line)
	}
	if w.Field != "" {
		fmt.Fprintf(&b, " [%s]", w.Field)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	return strings.TrimSpace(b.String())
}

// ParseResult holds the records produced by a parse, grouped by entity type.
type ParseResult struct {
	Entities map[string][]entities.Record
	Warnings []Warning
}

func NewParseResult() *ParseResult {
	return &ParseResult{Entities: make(map[string][]entities.Record)}
}

// Add appends a record under the entity type.
func (r *ParseResult) Add(entity string, rec entities.Record) {
	r.Entities[entity] = append(r.Entities[entity], rec)
}

// Warn appends a warning.
func (r *ParseResult) Warn(w Warning) {
	r.Warnings = append(r.Warnings, w)
}

// Count returns the total number of records across all entity types.
func (r *ParseResult) Count() int {
	total := 0
	for _, recs := range r.Entities {
		total += len(recs)
	}
	return total
}

// Types returns the entity types with at least one record, in dependency order.
func (r *ParseResult) Types() []string {
	var types []string
	for _, entity := range entities.EntityOrder {
		if len(r.Entities[entity]) > 0 {
			types = append(types, entity)
		}
	}
	return types
}

// ExportResult is the outcome of an adapter export.
type ExportResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RecordCount int    `json:"record_count"`
}
