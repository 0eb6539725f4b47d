package entities

import "time"

type AuditEventType string

const (
	AuditEventImport AuditEventType = "import"
	AuditEventExport AuditEventType = "export"
	AuditEventBackup AuditEventType = "backup"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusPartial AuditStatus = "partial"
	AuditStatusFailed  AuditStatus = "failed"
)

type AuditEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	InstitutionID string         `gorm:"index;size:36" json:"institution_id,omitempty"`
	EventType     AuditEventType `gorm:"index;size:50" json:"event_type"`
	AdapterID     string         `gorm:"index;size:64" json:"adapter_id"`
	Action        string         `gorm:"size:100" json:"action"`      // e.g., "generic_csv_import", "dry_run"
	Description   string         `gorm:"size:500" json:"description"` // Human-readable summary
	ReportFile    string         `gorm:"size:100" json:"report_file,omitempty"`
	Metadata      string         `gorm:"type:text" json:"metadata,omitempty"` // JSON counts per entity
	Status        AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg      string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
