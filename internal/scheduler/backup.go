// Package scheduler runs periodic generic-format backups on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mrlokans/courserecords/internal/adapters"
)

// BackupRunner writes one institution archive into a directory.
// exporters.Service implements it.
type BackupRunner interface {
	Backup(ctx context.Context, institutionID, dir string) (string, adapters.ExportResult, error)
}

// AuditPruner drops audit events older than the retention window.
// audit.Service implements it.
type AuditPruner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

type Config struct {
	Schedule string
	Dir      string
	// InstitutionIDs are backed up one archive each; empty means a single
	// archive of every institution.
	InstitutionIDs []string
	// AuditRetention prunes older audit events after each run; zero keeps them.
	AuditRetention time.Duration
}

// BackupScheduler exports on a cron schedule. Jobs never overlap and
// institutions are exported one after another.
type BackupScheduler struct {
	runner BackupRunner
	pruner AuditPruner
	cfg    Config
	log    zerolog.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	schedule  cron.Schedule
	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewBackupScheduler(runner BackupRunner, pruner AuditPruner, cfg Config, logger zerolog.Logger) *BackupScheduler {
	return &BackupScheduler{
		runner: runner,
		pruner: pruner,
		cfg:    cfg,
		log:    logger.With().Str("component", "backup_scheduler").Logger(),
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// Start schedules the backup job. Calling Start twice is a no-op.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	schedule, err := cronParser.Parse(s.cfg.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.schedule = schedule
	s.entryID = s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.RunNow(s.ctx)
	}))

	s.cron.Start()
	s.isRunning = true

	s.log.Info().
		Str("schedule", s.cfg.Schedule).
		Str("dir", s.cfg.Dir).
		Strs("institutions", s.cfg.InstitutionIDs).
		Time("next_run", schedule.Next(time.Now())).
		Msg("Backup scheduler started")
	return nil
}

// Stop waits for a running job to finish and stops the scheduler.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	s.log.Info().Msg("Backup scheduler stopped")
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the job fires next, or nil when stopped.
func (s *BackupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.schedule.Next(time.Now())
	return &next
}

// RunNow performs one backup pass synchronously and returns the archives
// written. A failing institution does not stop the others.
func (s *BackupScheduler) RunNow(ctx context.Context) []string {
	start := time.Now()
	institutions := s.cfg.InstitutionIDs
	if len(institutions) == 0 {
		institutions = []string{""}
	}

	var written []string
	for _, institutionID := range institutions {
		if ctx.Err() != nil {
			s.log.Warn().Msg("Backup run cancelled")
			break
		}
		path, result, err := s.runner.Backup(ctx, institutionID, s.cfg.Dir)
		if err != nil {
			s.log.Error().Err(err).Str("institution_id", institutionID).Msg("Backup failed")
			continue
		}
		written = append(written, path)
		s.log.Debug().Str("institution_id", institutionID).Int("records", result.RecordCount).Str("path", path).Msg("Backup written")
	}

	s.pruneAudit(ctx)

	s.log.Info().
		Int("archives", len(written)).
		Int("institutions", len(institutions)).
		Dur("duration", time.Since(start).Round(time.Millisecond)).
		Msg("Backup run finished")
	return written
}

func (s *BackupScheduler) pruneAudit(ctx context.Context) {
	if s.pruner == nil || s.cfg.AuditRetention <= 0 {
		return
	}
	deleted, err := s.pruner.DeleteOldEvents(ctx, s.cfg.AuditRetention)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to prune audit events")
		return
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Msg("Pruned old audit events")
	}
}
