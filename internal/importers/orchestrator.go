package importers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/services"
)

// Recorder keeps a trail of finished imports. audit.Service implements it.
type Recorder interface {
	RecordImport(ctx context.Context, report *Report)
}

type Config struct {
	Registry *adapters.Registry
	Store    services.RecordStore
	// Recorder is optional; dry runs are never recorded.
	Recorder        Recorder
	Logger          zerolog.Logger
	DefaultStrategy adapters.ConflictStrategy
}

// Orchestrator runs one file through an adapter and into the store:
// validate → parse → resolve conflicts → write.
type Orchestrator struct {
	registry        *adapters.Registry
	store           services.RecordStore
	recorder        Recorder
	log             zerolog.Logger
	defaultStrategy adapters.ConflictStrategy
	now             func() time.Time
}

func NewOrchestrator(cfg Config) *Orchestrator {
	strategy := cfg.DefaultStrategy
	if strategy == "" {
		strategy = adapters.UseTheirs
	}
	return &Orchestrator{
		registry:        cfg.Registry,
		store:           cfg.Store,
		recorder:        cfg.Recorder,
		log:             cfg.Logger.With().Str("component", "importer").Logger(),
		defaultStrategy: strategy,
		now:             time.Now,
	}
}

// Import validates and parses the file with the named adapter, then applies
// the conflict strategy record by record.
//
// A file that fails validation or parsing yields a rejected report together
// with the error (a *adapters.CompatibilityError for validation failures);
// nothing has been written in that case. adapters.ErrNotImplemented is
// returned as is, without a report. Per-record failures never abort the run:
// they are collected in the report, whose status then becomes
// StatusSucceededWithErrors.
func (o *Orchestrator) Import(ctx context.Context, adapterID, path string, opts adapters.Options) (*Report, error) {
	strategy, err := adapters.ParseConflictStrategy(string(opts.ConflictStrategy), o.defaultStrategy)
	if err != nil {
		return nil, err
	}
	opts.ConflictStrategy = strategy

	adapter, err := o.registry.Get(adapterID)
	if err != nil {
		return nil, err
	}

	start := o.now()
	report := newReport(adapterID, opts, start)
	log := o.log.With().Str("adapter", adapterID).Str("file", filepath.Base(path)).Bool("dry_run", opts.DryRun).Logger()

	ok, message := adapter.ValidateFileCompatibility(path)
	if !ok {
		report.reject(message)
		o.finish(ctx, log, report, start)
		return report, &adapters.CompatibilityError{AdapterID: adapterID, Reason: message}
	}

	result, err := adapter.Parse(path, opts)
	if errors.Is(err, adapters.ErrNotImplemented) {
		return nil, err
	}
	if err != nil {
		report.reject(err.Error())
		o.finish(ctx, log, report, start)
		return report, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	for _, w := range result.Warnings {
		log.Debug().Str("warning", w.String()).Msg("Parse warning")
		report.Warnings = append(report.Warnings, w)
	}

	run := &importRun{
		store:   o.store,
		opts:    opts,
		report:  report,
		ids:     make(map[string]map[string]string),
		planned: make(map[string]map[string]string),
		log:     log,
	}
	for _, entity := range entities.EntityOrder {
		for i, rec := range result.Entities[entity] {
			run.importRecord(ctx, entity, i+1, rec)
		}
	}

	report.complete()
	o.finish(ctx, log, report, start)
	return report, nil
}

func (o *Orchestrator) finish(ctx context.Context, log zerolog.Logger, report *Report, start time.Time) {
	report.DurationMS = o.now().Sub(start).Milliseconds()

	event := log.Info()
	if report.Status == StatusRejected {
		event = log.Warn()
	}
	event.Str("status", string(report.Status)).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("errored", report.Errored).
		Int("warnings", len(report.Warnings)).
		Msg(report.Message)

	if o.recorder != nil && !report.DryRun {
		o.recorder.RecordImport(ctx, report)
	}
}
