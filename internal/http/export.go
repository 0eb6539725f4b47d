package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/utils"
)

type ExportController struct {
	exporter Exporter
	adapters AdapterLookup
	now      func() time.Time
}

func NewExportController(exporter Exporter, lookup AdapterLookup) *ExportController {
	return &ExportController{exporter: exporter, adapters: lookup, now: time.Now}
}

// Export handles GET /api/export?adapter_id=&institution_id=
//
// The file is produced in a scratch directory, streamed as an attachment and
// removed afterwards.
func (ec *ExportController) Export(c *gin.Context) {
	adapterID := strings.TrimSpace(c.Query("adapter_id"))
	if adapterID == "" {
		respondBadRequest(c, "adapter_id is required")
		return
	}
	institutionID := strings.TrimSpace(c.Query("institution_id"))

	adapter, err := ec.adapters.Get(adapterID)
	if err != nil {
		respondError(c, http.StatusNotFound, CodeUnknownAdapter, err.Error())
		return
	}

	dir, err := os.MkdirTemp("", "courserecords-export-*")
	if err != nil {
		respondInternalError(c, err, "export scratch dir")
		return
	}
	defer os.RemoveAll(dir)

	filename := exportFilename(adapter.Info(), institutionID, ec.now())
	path := filepath.Join(dir, filename)

	result, err := ec.exporter.Export(c.Request.Context(), adapterID, institutionID, path)
	switch {
	case errors.Is(err, adapters.ErrUnknownAdapter):
		respondError(c, http.StatusNotFound, CodeUnknownAdapter, err.Error())
		return
	case errors.Is(err, adapters.ErrNotImplemented):
		respondError(c, http.StatusNotImplemented, CodeNotImplemented, fmt.Sprintf("%s cannot export", adapterID))
		return
	case err != nil:
		respondInternalError(c, err, "export")
		return
	}

	c.Header("X-Record-Count", strconv.Itoa(result.RecordCount))
	c.FileAttachment(path, filename)
}

func exportFilename(info adapters.Info, institutionID string, at time.Time) string {
	label := utils.FileLabel(institutionID, "all")
	ext := ""
	if len(info.SupportedFormats) > 0 {
		ext = info.SupportedFormats[0]
	}
	return fmt.Sprintf("%s-%s-%s%s", info.ID, label, at.UTC().Format("20060102T150405Z"), ext)
}
