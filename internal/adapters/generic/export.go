package generic

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
)

// Export writes the manifest followed by one CSV per entity type, in
// dependency order. Every entity file is written, header included, even when
// it has no rows. Only the columns of entities.CSVColumns are emitted, so
// credential fields present on the input records never reach the archive.
func (a *Adapter) Export(records map[string][]entities.Record, outputPath string, opts adapters.Options) (adapters.ExportResult, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return adapters.ExportResult{}, fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	exportedAt := a.now().UTC()
	total, err := a.writeArchive(out, records, exportedAt)
	if err != nil {
		return adapters.ExportResult{}, err
	}

	return adapters.ExportResult{
		Success:     true,
		Message:     fmt.Sprintf("exported %d records", total),
		RecordCount: total,
	}, nil
}

func (a *Adapter) writeArchive(w io.Writer, records map[string][]entities.Record, exportedAt time.Time) (int, error) {
	zw := zip.NewWriter(w)

	manifest := Manifest{
		FormatVersion: FormatVersion,
		EntityCounts:  make(map[string]int, len(entities.EntityOrder)),
		ExportedAt:    exportedAt.Format(time.RFC3339),
		AdapterID:     AdapterID,
	}
	total := 0
	for _, entity := range entities.EntityOrder {
		manifest.EntityCounts[entity] = len(records[entity])
		total += len(records[entity])
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode manifest: %w", err)
	}
	mw, err := createEntry(zw, ManifestName, exportedAt)
	if err != nil {
		return 0, err
	}
	if _, err := mw.Write(data); err != nil {
		return 0, fmt.Errorf("failed to write manifest: %w", err)
	}

	for _, entity := range entities.EntityOrder {
		ew, err := createEntry(zw, CSVName(entity), exportedAt)
		if err != nil {
			return 0, err
		}
		if err := writeEntity(ew, entity, records[entity]); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", CSVName(entity), err)
		}
	}

	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return total, nil
}

func createEntry(zw *zip.Writer, name string, modified time.Time) (io.Writer, error) {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", name, err)
	}
	return w, nil
}

func writeEntity(w io.Writer, entity string, records []entities.Record) error {
	columns := entities.CSVColumns[entity]
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = adapters.FormatValue(col, rec[col])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
