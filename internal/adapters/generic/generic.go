// Package generic implements the normalized CSV/ZIP format: a manifest.json
// plus one CSV per entity type, written in dependency order so that a
// top-to-bottom import never references an undefined foreign key.
//
// It is the only format that round-trips, and the one used for backups.
package generic

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
)

const AdapterID = "generic_csv"

type Adapter struct {
	adapters.Base
	now func() time.Time
}

func NewAdapter() *Adapter {
	return &Adapter{
		Base: adapters.NewBase(".zip"),
		now:  time.Now,
	}
}

func (a *Adapter) Info() adapters.Info {
	return adapters.Info{
		ID:               AdapterID,
		Name:             "Generic CSV Archive",
		Description:      "ZIP archive with a manifest and one CSV per entity type",
		SupportedFormats: a.SupportedFormats,
		DataTypes:        entities.EntityOrder,
		FormatVersion:    FormatVersion,
		Bidirectional:    true,
		SecurityNotes:    "Password hashes and tokens are never exported and are dropped on import. Imported users are created pending.",
	}
}

// ValidateFileCompatibility checks the extension, the container, the manifest
// version and the presence of institutions.csv.
func (a *Adapter) ValidateFileCompatibility(path string) (bool, string) {
	result := a.ValidateBasics(path)
	if result.HasErrors() {
		return result.Outcome()
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		result.AddError("file is not a valid ZIP archive")
		return result.Outcome()
	}
	defer zr.Close()

	manifest, err := readManifest(zr.File)
	if err != nil {
		result.AddError(err.Error())
		return result.Outcome()
	}
	if manifest.FormatVersion != FormatVersion {
		result.AddError(fmt.Sprintf("unsupported format version %q (expected %q)", manifest.FormatVersion, FormatVersion))
		return result.Outcome()
	}
	if findEntry(zr.File, CSVName(entities.EntityInstitutions)) == nil {
		result.AddError(fmt.Sprintf("archive has no %s", CSVName(entities.EntityInstitutions)))
		return result.Outcome()
	}

	result.Message = fmt.Sprintf("Generic CSV archive, format %s", manifest.FormatVersion)
	return result.Outcome()
}

// DetectDataTypes lists the entities with at least one row in the archive.
func (a *Adapter) DetectDataTypes(path string) ([]string, error) {
	result, err := a.Parse(path, adapters.Options{})
	if err != nil {
		return nil, err
	}
	return result.Types(), nil
}

// Parse reads every entity CSV in dependency order. Structural problems (bad
// container, bad manifest) are errors; column and row anomalies are warnings.
func (a *Adapter) Parse(path string, opts adapters.Options) (*adapters.ParseResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(zr.File)
	if err != nil {
		return nil, err
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %q", manifest.FormatVersion)
	}

	result := adapters.NewParseResult()
	for _, entity := range entities.EntityOrder {
		entry := findEntry(zr.File, CSVName(entity))
		if entry == nil {
			if entity == entities.EntityInstitutions {
				return nil, fmt.Errorf("archive has no %s", CSVName(entity))
			}
			continue
		}

		if err := parseEntry(entity, entry, result); err != nil {
			return nil, err
		}

		if expected, ok := manifest.EntityCounts[entity]; ok && expected != len(result.Entities[entity]) {
			result.Warn(adapters.Warning{Entity: entity,
				Message: fmt.Sprintf("manifest declares %d records, parsed %d", expected, len(result.Entities[entity]))})
		}
	}
	return result, nil
}

func parseEntry(entity string, entry *zip.File, result *adapters.ParseResult) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", entry.Name, err)
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		result.Warn(adapters.Warning{Entity: entity, Message: "file has no header row"})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", entry.Name, err)
	}

	known := make(map[string]bool)
	for _, c := range entities.CSVColumns[entity] {
		known[c] = true
	}

	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case entities.IsSensitiveField(name):
			result.Warn(adapters.Warning{Entity: entity, Line: 1, Field: name, Message: "sensitive column dropped"})
		case !known[name]:
			result.Warn(adapters.Warning{Entity: entity, Line: 1, Field: name, Message: "unknown column ignored"})
		default:
			columns[i] = name
		}
	}

	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Warn(adapters.Warning{Entity: entity, Line: lineNum, Message: fmt.Sprintf("unreadable row: %v", err)})
			continue
		}
		if len(row) != len(header) {
			result.Warn(adapters.Warning{Entity: entity, Line: lineNum,
				Message: fmt.Sprintf("row has %d cells, header has %d; skipped", len(row), len(header))})
			continue
		}

		rec := entities.Record{}
		for i, field := range columns {
			if field == "" || row[i] == "" {
				continue
			}
			rec[field] = row[i]
		}
		result.Add(entity, rec)
	}
	return nil
}

var _ adapters.Adapter = (*Adapter)(nil)
