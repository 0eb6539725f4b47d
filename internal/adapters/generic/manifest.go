package generic

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
)

const (
	ManifestName  = "manifest.json"
	FormatVersion = "1.0"
)

// Manifest is the archive descriptor. Readers ignore keys they do not know.
type Manifest struct {
	FormatVersion string         `json:"format_version"`
	EntityCounts  map[string]int `json:"entity_counts"`
	ExportedAt    string         `json:"exported_at,omitempty"`
	AdapterID     string         `json:"adapter_id,omitempty"`
}

// CSVName returns the archive entry name holding an entity's rows.
func CSVName(entity string) string {
	return entity + ".csv"
}

func findEntry(files []*zip.File, name string) *zip.File {
	for _, f := range files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readManifest(files []*zip.File) (*Manifest, error) {
	entry := findEntry(files, ManifestName)
	if entry == nil {
		return nil, fmt.Errorf("archive has no %s", ManifestName)
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ManifestName, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestName, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", ManifestName, err)
	}
	return &m, nil
}
