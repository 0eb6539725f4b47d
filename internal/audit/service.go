package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/exporters"
	"github.com/mrlokans/courserecords/internal/importers"
)

// EventStore persists audit events. database/audit.Repository implements it.
type EventStore interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	GetEvents(ctx context.Context, filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventByID(ctx context.Context, id uint) (*entities.AuditEvent, error)
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    EventStore
	auditor *Auditor
	log     zerolog.Logger
}

// NewService creates a new audit service. auditor may be nil, in which case
// full import reports are not kept on disk.
func NewService(repo EventStore, auditor *Auditor, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		log:     logger.With().Str("component", "audit").Logger(),
	}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// RecordImport stores an event for a finished import along with the full
// report as a JSON file. Audit failures are logged and never surface to the
// import.
func (s *Service) RecordImport(ctx context.Context, report *importers.Report) {
	event := &entities.AuditEvent{
		InstitutionID: report.InstitutionID,
		EventType:     entities.AuditEventImport,
		AdapterID:     report.AdapterID,
		Action:        report.AdapterID + "_import",
		Description:   truncate(report.Message, 500),
		Status:        importStatus(report.Status),
	}
	if report.Status == importers.StatusRejected {
		event.ErrorMsg = truncate(report.Message, 500)
	}

	metadata := map[string]any{
		"conflict_strategy": report.Strategy,
		"total":             report.Total,
		"created":           report.Created,
		"updated":           report.Updated,
		"skipped":           report.Skipped,
		"errored":           report.Errored,
		"warnings":          len(report.Warnings),
		"entities":          report.Entities,
	}
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}

	if s.auditor != nil {
		filename, err := s.auditor.SaveJSON("import", report)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to save import report")
		}
		event.ReportFile = filename
	}

	s.save(ctx, event)
}

// RecordExport stores an event for a finished export or backup.
func (s *Service) RecordExport(ctx context.Context, outcome exporters.Outcome) {
	eventType := entities.AuditEventExport
	action := outcome.AdapterID + "_export"
	if outcome.Backup {
		eventType = entities.AuditEventBackup
		action = "scheduled_backup"
	}

	event := &entities.AuditEvent{
		InstitutionID: outcome.InstitutionID,
		EventType:     eventType,
		AdapterID:     outcome.AdapterID,
		Action:        action,
		Description:   truncate(outcome.Result.Message, 500),
		Status:        entities.AuditStatusSuccess,
	}

	metadata := map[string]any{"record_count": outcome.Result.RecordCount}
	if outcome.Backup {
		metadata["path"] = outcome.OutputPath
	}
	if mdBytes, err := json.Marshal(metadata); err == nil {
		event.Metadata = string(mdBytes)
	}

	if outcome.Err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(outcome.Err.Error(), 500)
	}

	s.save(ctx, event)
}

func (s *Service) save(ctx context.Context, event *entities.AuditEvent) {
	if err := s.repo.LogEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("action", event.Action).Msg("Failed to log audit event")
	}
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// GetEvent retrieves one audit event.
func (s *Service) GetEvent(ctx context.Context, id uint) (*entities.AuditEvent, error) {
	return s.repo.GetEventByID(ctx, id)
}

// ReportPath returns the on-disk location of the report an event references.
func (s *Service) ReportPath(event *entities.AuditEvent) (string, bool) {
	if s.auditor == nil || event.ReportFile == "" {
		return "", false
	}
	path, err := s.auditor.Open(event.ReportFile)
	if err != nil {
		return "", false
	}
	return path, true
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func importStatus(status importers.Status) entities.AuditStatus {
	switch status {
	case importers.StatusSucceeded:
		return entities.AuditStatusSuccess
	case importers.StatusSucceededWithErrors:
		return entities.AuditStatusPartial
	default:
		return entities.AuditStatusFailed
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

var (
	_ importers.Recorder = (*Service)(nil)
	_ exporters.Recorder = (*Service)(nil)
)
