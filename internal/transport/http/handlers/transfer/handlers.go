package transferhandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/auth"
	"perfeval/internal/domain/transfer"
	"perfeval/internal/platform/jobs"
	"perfeval/internal/transport/http/api"
	analyticshandler "perfeval/internal/transport/http/handlers/analytics"
	"perfeval/internal/transport/http/middleware"
	"perfeval/internal/transport/http/shared"
)

const fileField = "file"

var transferErrors = api.ErrorMap{
	transfer.ErrUnknownTarget: {HTTP: http.StatusBadRequest, Code: "validation_error"},
	transfer.ErrUnknownFormat: {HTTP: http.StatusBadRequest, Code: "invalid_file"},
	transfer.ErrEmptyFile:     {HTTP: http.StatusBadRequest, Code: "invalid_file"},
	transfer.ErrNoKnownColumn: {HTTP: http.StatusBadRequest, Code: "invalid_file"},
	jobs.ErrQueueFull:         {HTTP: http.StatusServiceUnavailable, Code: "resource_exhausted"},
}

type Handler struct {
	Importer *transfer.Importer
	Exporter *transfer.Exporter
	Jobs     *jobs.Service
	Audit    *audit.Service
	Perms    middleware.PermissionStore
	Idem     *middleware.IdempotencyStore
	Now      func() time.Time
}

func NewHandler(importer *transfer.Importer, exporter *transfer.Exporter, jobService *jobs.Service, auditSvc *audit.Service, perms middleware.PermissionStore, idem *middleware.IdempotencyStore) *Handler {
	return &Handler{
		Importer: importer,
		Exporter: exporter,
		Jobs:     jobService,
		Audit:    auditSvc,
		Perms:    perms,
		Idem:     idem,
		Now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCompany)

		exports := r.With(middleware.RequirePermission(auth.PermTransferExport, h.Perms))
		exports.Get("/exports", h.handleExport)

		imports := r.With(middleware.RequirePermission(auth.PermTransferImport, h.Perms))
		if h.Idem != nil {
			imports = imports.With(middleware.Idempotency(h.Idem))
		}
		imports.Post("/imports", h.handleImport)
	})
}

// handleExport streams ?format=csv|xlsx|pdf for the dashboard filter in the
// query string. The body is rendered in memory first so a failure still
// produces a JSON error.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = transfer.FormatCSV
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = "Relatório de desempenho"
	}
	sess := middleware.Session(r)
	filter := analyticshandler.FilterFromRequest(r)

	var buf bytes.Buffer
	if err := h.Exporter.Export(r.Context(), sess, format, filter, title, &buf); err != nil {
		api.FailError(w, r, err, transferErrors, analyticshandler.Errors)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), sess, audit.ActionExport, "report", format, nil, filter); err != nil {
			slog.Warn("audit export failed", "err", err)
		}
	}

	w.Header().Set("Content-Type", transfer.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.FileName(format, h.Now())))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write export failed", "err", err)
	}
}

// handleImport reads a multipart upload with fields file, target, format
// (csv|xlsx, inferred from the file name when absent), dryRun and async.
// Async imports return 202 with the job id.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(fileField)
	if err != nil {
		v := shared.NewValidator()
		v.Add(fileField, "multipart file is required")
		v.Reject(w, r)
		return
	}
	defer file.Close()

	opts := transfer.Options{
		Target: strings.ToLower(strings.TrimSpace(r.FormValue("target"))),
		Format: strings.ToLower(strings.TrimSpace(r.FormValue("format"))),
		DryRun: formBool(r, "dryRun"),
	}
	if opts.Format == "" {
		opts.Format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	}
	v := shared.NewValidator()
	v.Required("target", opts.Target, "target is required")
	v.Enum("target", opts.Target, transfer.Targets, "unknown import target")
	v.Enum("format", opts.Format, []string{transfer.FormatCSV, transfer.FormatXLSX}, "format must be csv or xlsx")
	if v.Reject(w, r) {
		return
	}

	sess := middleware.Session(r)
	if !formBool(r, "async") || h.Jobs == nil {
		report, err := h.Importer.ImportFile(r.Context(), sess, opts, file)
		if err != nil {
			api.FailError(w, r, err, transferErrors)
			return
		}
		api.Success(w, report, middleware.GetRequestID(r.Context()))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		api.FailError(w, r, err)
		return
	}
	jobID, err := h.Jobs.Enqueue(r.Context(), jobs.JobImport, sess.CompanyID, func(ctx context.Context) (any, error) {
		return h.Importer.ImportFile(ctx, sess, opts, bytes.NewReader(content))
	})
	if err != nil {
		api.FailError(w, r, err, transferErrors)
		return
	}
	api.Accepted(w, map[string]string{"jobId": jobID}, middleware.GetRequestID(r.Context()))
}

func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "1", "true", "yes", "sim":
		return true
	}
	return false
}
