package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/importers"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

type ImportController struct {
	importer        Importer
	uploadDir       string
	maxUploadBytes  int64
	defaultStrategy adapters.ConflictStrategy
}

func NewImportController(importer Importer, uploadDir string, maxUploadBytes int64, defaultStrategy adapters.ConflictStrategy) *ImportController {
	return &ImportController{
		importer:        importer,
		uploadDir:       uploadDir,
		maxUploadBytes:  maxUploadBytes,
		defaultStrategy: defaultStrategy,
	}
}

var errUploadTooLarge = errors.New("upload too large")

// Import handles POST /api/import
//
// Multipart fields: file, adapter_id, institution_id, conflict_strategy,
// dry_run. Responds with the import report: 422 when the file was rejected,
// 200 otherwise (including runs with per-record errors).
func (ic *ImportController) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ic.maxUploadBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ic.respondTooLarge(c)
			return
		}
		respondBadRequest(c, "file is required")
		return
	}
	defer file.Close()

	adapterID := strings.TrimSpace(c.PostForm("adapter_id"))
	if adapterID == "" {
		respondBadRequest(c, "adapter_id is required")
		return
	}
	strategy, err := adapters.ParseConflictStrategy(c.PostForm("conflict_strategy"), ic.defaultStrategy)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if header.Size > ic.maxUploadBytes {
		ic.respondTooLarge(c)
		return
	}

	path, err := ic.saveUpload(file, header)
	if errors.Is(err, errUploadTooLarge) {
		ic.respondTooLarge(c)
		return
	}
	if err != nil {
		respondInternalError(c, err, "save upload")
		return
	}
	defer os.Remove(path)

	opts := adapters.Options{
		InstitutionID:    strings.TrimSpace(c.PostForm("institution_id")),
		ConflictStrategy: strategy,
		DryRun:           parseBool(c.PostForm("dry_run")),
	}

	report, err := ic.importer.Import(c.Request.Context(), adapterID, path, opts)
	switch {
	case errors.Is(err, adapters.ErrUnknownAdapter):
		respondError(c, http.StatusNotFound, CodeUnknownAdapter, err.Error())
	case errors.Is(err, adapters.ErrNotImplemented):
		respondError(c, http.StatusNotImplemented, CodeNotImplemented, fmt.Sprintf("%s cannot import files", adapterID))
	case report != nil && report.Status == importers.StatusRejected:
		c.JSON(http.StatusUnprocessableEntity, report)
	case err != nil:
		respondInternalError(c, err, "import")
	default:
		c.JSON(http.StatusOK, report)
	}
}

// saveUpload copies the upload into the upload directory, keeping the
// original extension so adapters can validate it.
func (ic *ImportController) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(ic.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(ic.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(file, ic.maxUploadBytes+1))
	if err == nil && written > ic.maxUploadBytes {
		err = errUploadTooLarge
	}
	if err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (ic *ImportController) respondTooLarge(c *gin.Context) {
	respondError(c, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
		fmt.Sprintf("file too large (max %d MB)", ic.maxUploadBytes/(1024*1024)))
}
