package http

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/courserecords/internal/adapters"
	"github.com/mrlokans/courserecords/internal/adapters/builtin"
	"github.com/mrlokans/courserecords/internal/adapters/generic"
	"github.com/mrlokans/courserecords/internal/audit"
	"github.com/mrlokans/courserecords/internal/database"
	auditRepo "github.com/mrlokans/courserecords/internal/database/audit"
	"github.com/mrlokans/courserecords/internal/database/records"
	"github.com/mrlokans/courserecords/internal/entities"
	"github.com/mrlokans/courserecords/internal/exporters"
	"github.com/mrlokans/courserecords/internal/importers"
)

type testServer struct {
	router    *gin.Engine
	uploadDir string
}

func newTestServer(t *testing.T, maxUploadBytes int64) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := database.NewDatabase(filepath.Join(dir, "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := zerolog.Nop()
	registry := builtin.NewRegistry()
	store := records.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), audit.NewAuditor(filepath.Join(dir, "audit")), logger)

	uploadDir := filepath.Join(dir, "uploads")
	router := NewRouter(RouterConfig{
		Database: db,
		Registry: registry,
		Importer: importers.NewOrchestrator(importers.Config{
			Registry: registry, Store: store, Recorder: auditService, Logger: logger,
		}),
		Exporter: exporters.NewService(exporters.Config{
			Registry: registry, Store: store, Recorder: auditService, Logger: logger,
		}),
		Audit:           auditService,
		UploadDir:       uploadDir,
		MaxUploadBytes:  maxUploadBytes,
		DefaultStrategy: adapters.UseTheirs,
		Version:         "test",
		Logger:          logger,
	})
	return &testServer{router: router, uploadDir: uploadDir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func sampleArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.zip")
	_, err := generic.NewAdapter().Export(map[string][]entities.Record{
		entities.EntityInstitutions: {{"id": "i-1", "name": "Mock University", "short_name": "MOCK"}},
		entities.EntityCourses: {
			{"id": "c-1", "course_number": "BIO-101", "course_title": "Biology", "institution_id": "i-1", "credit_hours": "3"},
			{"id": "c-2", "course_number": "BIO-201", "course_title": "Genetics", "institution_id": "i-1"},
		},
	}, path, adapters.Options{})
	require.NoError(t, err)
	return path
}

func uploadRequest(t *testing.T, filePath string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filePath != "" {
		part, err := mw.CreateFormFile("file", filepath.Base(filePath))
		require.NoError(t, err)
		data, err := os.ReadFile(filePath)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) importers.Report {
	t.Helper()
	var report importers.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	return report
}

func assertUploadsCleaned(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRouter_ListAdapters(t *testing.T) {
	s := newTestServer(t, 1<<20)

	w := s.do(httptest.NewRequest("GET", "/api/adapters", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Adapters []adapters.Info `json:"adapters"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Adapters, 4)
	assert.Equal(t, "business_docx", body.Adapters[0].ID)
	assert.True(t, body.Adapters[1].Bidirectional)
}

func TestRouter_ImportThenExport(t *testing.T) {
	s := newTestServer(t, 1<<20)
	archive := sampleArchive(t)

	w := s.do(uploadRequest(t, archive, map[string]string{"adapter_id": generic.AdapterID, "dry_run": "true"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decodeReport(t, w)
	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Created)

	w = s.do(uploadRequest(t, archive, map[string]string{"adapter_id": generic.AdapterID}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report = decodeReport(t, w)
	assert.Equal(t, importers.StatusSucceeded, report.Status)
	assert.Equal(t, 3, report.Created)
	assertUploadsCleaned(t, s.uploadDir)

	w = s.do(uploadRequest(t, archive, map[string]string{"adapter_id": generic.AdapterID, "conflict_strategy": "use_mine"}))
	require.Equal(t, http.StatusOK, w.Code)
	report = decodeReport(t, w)
	assert.Equal(t, 3, report.Skipped)
	assert.Equal(t, adapters.UseMine, report.Strategy)

	w = s.do(httptest.NewRequest("GET", "/api/export?adapter_id=generic_csv", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "generic_csv-all-")
	assert.Equal(t, "3", w.Header().Get("X-Record-Count"))

	body := w.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	var courses []byte
	for _, f := range zr.File {
		if f.Name == generic.CSVName(entities.EntityCourses) {
			rc, err := f.Open()
			require.NoError(t, err)
			courses, err = io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
		}
	}
	assert.Contains(t, string(courses), "BIO-101")
	assert.Contains(t, string(courses), "BIO-201")

	w = s.do(httptest.NewRequest("GET", "/api/audit", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data  []entities.AuditEvent `json:"data"`
		Total int64                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, entities.AuditEventExport, page.Data[0].EventType)

	importEvent := page.Data[len(page.Data)-1]
	w = s.do(httptest.NewRequest("GET", "/api/audit/"+strconv.FormatUint(uint64(importEvent.ID), 10)+"/report", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"adapter_id"`)
}

func TestRouter_ImportErrors(t *testing.T) {
	s := newTestServer(t, 1<<20)

	t.Run("missing file", func(t *testing.T) {
		w := s.do(uploadRequest(t, "", map[string]string{"adapter_id": generic.AdapterID}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing adapter", func(t *testing.T) {
		w := s.do(uploadRequest(t, sampleArchive(t), nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "adapter_id is required")
	})

	t.Run("bad strategy", func(t *testing.T) {
		w := s.do(uploadRequest(t, sampleArchive(t), map[string]string{"adapter_id": generic.AdapterID, "conflict_strategy": "merge"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		w := s.do(uploadRequest(t, sampleArchive(t), map[string]string{"adapter_id": "nope"}))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), CodeUnknownAdapter)
	})

	t.Run("incompatible file is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.zip")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))

		w := s.do(uploadRequest(t, path, map[string]string{"adapter_id": generic.AdapterID}))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		report := decodeReport(t, w)
		assert.Equal(t, importers.StatusRejected, report.Status)
		assert.Contains(t, report.Message, "not a valid ZIP")
	})

	assertUploadsCleaned(t, s.uploadDir)
}

func TestRouter_ImportTooLarge(t *testing.T) {
	s := newTestServer(t, 16)

	w := s.do(uploadRequest(t, sampleArchive(t), map[string]string{"adapter_id": generic.AdapterID}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), CodeFileTooLarge)
	assertUploadsCleaned(t, s.uploadDir)
}

func TestRouter_ExportErrors(t *testing.T) {
	s := newTestServer(t, 1<<20)

	w := s.do(httptest.NewRequest("GET", "/api/export", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest("GET", "/api/export?adapter_id=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest("GET", "/api/export?adapter_id=business_docx", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), CodeNotImplemented)
}

func TestRouter_AuditNotFound(t *testing.T) {
	s := newTestServer(t, 1<<20)

	w := s.do(httptest.NewRequest("GET", "/api/audit/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(httptest.NewRequest("GET", "/api/audit/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
