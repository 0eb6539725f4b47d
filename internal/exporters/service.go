// Package exporters reads an institution's records from the store and writes
// them out through a bidirectional adapter.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/services"
	"github.com/mrlokans/courserecords/internal/utils"
)

// Outcome describes one finished export for the audit trail.
type Outcome struct {
	AdapterID     string
	InstitutionID string
	OutputPath    string
	Backup        bool
	Result        adapters.ExportResult
	Err           error
}

// Recorder keeps a trail of finished exports. audit.Service implements it.
type Recorder interface {
	RecordExport(ctx context.Context, outcome Outcome)
}

type Config struct {
	Registry *adapters.Registry
	Store    services.RecordReader
	Recorder Recorder
	Logger   zerolog.Logger
}

type Service struct {
	registry *adapters.Registry
	store    services.RecordReader
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(cfg Config) *Service {
	return &Service{
		registry: cfg.Registry,
		store:    cfg.Store,
		recorder: cfg.Recorder,
		log:      cfg.Logger.With().Str("component", "exporter").Logger(),
		now:      time.Now,
	}
}

// Export writes every entity the adapter declares, scoped to institutionID
// (all institutions when empty), to outputPath. Adapters that cannot export
// yield adapters.ErrNotImplemented. A failed export leaves no file behind.
func (s *Service) Export(ctx context.Context, adapterID, institutionID, outputPath string) (adapters.ExportResult, error) {
	return s.run(ctx, adapterID, institutionID, outputPath, false)
}

// Backup exports the institution in the generic archive format into dir and
// returns the path of the archive.
func (s *Service) Backup(ctx context.Context, institutionID, dir string) (string, adapters.ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", adapters.ExportResult{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	label := utils.FileLabel(institutionID, "all")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.zip", label, s.now().UTC().Format("20060102T150405Z")))

	result, err := s.run(ctx, generic.AdapterID, institutionID, path, true)
	return path, result, err
}

func (s *Service) run(ctx context.Context, adapterID, institutionID, outputPath string, backup bool) (adapters.ExportResult, error) {
	adapter, err := s.registry.Get(adapterID)
	if err != nil {
		return adapters.ExportResult{}, err
	}
	info := adapter.Info()
	if !info.Bidirectional {
		return adapters.ExportResult{}, adapters.ErrNotImplemented
	}

	outcome := Outcome{AdapterID: adapterID, InstitutionID: institutionID, OutputPath: outputPath, Backup: backup}

	records, err := s.collect(ctx, info.DataTypes, institutionID)
	if err == nil {
		outcome.Result, err = adapter.Export(records, outputPath, adapters.Options{InstitutionID: institutionID})
	}
	if errors.Is(err, adapters.ErrNotImplemented) {
		return adapters.ExportResult{}, err
	}
	if err != nil {
		_ = os.Remove(outputPath)
		outcome.Err = err
	}

	s.finish(ctx, outcome)
	return outcome.Result, err
}

func (s *Service) collect(ctx context.Context, types []string, institutionID string) (map[string][]entities.Record, error) {
	records := make(map[string][]entities.Record, len(types))
	for _, entity := range types {
		recs, err := s.store.List(ctx, entity, institutionID)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", entity, err)
		}
		records[entity] = recs
	}
	return records, nil
}

func (s *Service) finish(ctx context.Context, outcome Outcome) {
	log := s.log.With().
		Str("adapter", outcome.AdapterID).
		Str("institution_id", outcome.InstitutionID).
		Bool("backup", outcome.Backup).
		Logger()
	if outcome.Err != nil {
		log.Error().Err(outcome.Err).Msg("Export failed")
	} else {
		log.Info().Int("records", outcome.Result.RecordCount).Str("path", outcome.OutputPath).Msg(outcome.Result.Message)
	}

	if s.recorder != nil {
		s.recorder.RecordExport(ctx, outcome)
	}
}
