package http

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/entities"
)

type AuditController struct {
	audit AuditReader
}

func NewAuditController(audit AuditReader) *AuditController {
	return &AuditController{audit: audit}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&adapter_id=&institution_id=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit, offset := parsePagination(c, 25, 100)
	filter := auditRepo.Filter{
		InstitutionID: c.Query("institution_id"),
		EventType:     entities.AuditEventType(c.Query("type")),
		AdapterID:     c.Query("adapter_id"),
	}

	events, total, err := ac.audit.GetEvents(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// GetAuditEvent handles GET /api/audit/:id
func (ac *AuditController) GetAuditEvent(c *gin.Context) {
	event, ok := ac.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, event)
}

// DownloadReport handles GET /api/audit/:id/report
func (ac *AuditController) DownloadReport(c *gin.Context) {
	event, ok := ac.lookup(c)
	if !ok {
		return
	}
	path, ok := ac.audit.ReportPath(event)
	if !ok {
		respondNotFound(c, "report")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (ac *AuditController) lookup(c *gin.Context) (*entities.AuditEvent, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	event, err := ac.audit.GetEvent(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "audit event")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "get audit event")
		return nil, false
	}
	return event, true
}
