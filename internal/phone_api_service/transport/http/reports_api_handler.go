package http

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"
)

// ReportsAPIHandler serves the browser-facing report browsing endpoints.
type ReportsAPIHandler struct {
	store  *filestore.Store
	logger *slog.Logger
}

func NewReportsAPIHandler(store *filestore.Store, logger *slog.Logger) *ReportsAPIHandler {
	return &ReportsAPIHandler{
		store:  store,
		logger: logger.With("handler", "reports_api"),
	}
}

// RegisterRoutes registers report API routes with the given router.
func (h *ReportsAPIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/quality", h.handleQualityDevices)
		r.Get("/quality/{device}", h.handleQualityEntries)
		r.Get("/problem", h.handleProblemList)
		r.Get("/problem/{filename}", h.handleProblemInfo)
		r.Get("/problem/{filename}/download", h.handleProblemDownload)
		r.Get("/summary", h.handleSummary)
	})
}

func (h *ReportsAPIHandler) handleQualityDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.store.QualityDevices()
	if err != nil {
		jsonError(w, h.logger, "Failed to list quality reports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, QualityDevicesResponse{Count: len(devices), Devices: devices})
}

func (h *ReportsAPIHandler) handleQualityEntries(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")
	if !domain.ValidDeviceName(device) {
		jsonError(w, h.logger, "Invalid device name format", http.StatusBadRequest)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 1000 {
			limit = n
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := h.store.QualityEntries(device)
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, h.logger, "No quality reports for device "+device, http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, h.logger, "Error reading reports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	total := len(entries)
	end := offset + limit
	if offset > total {
		offset = total
	}
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, QualityEntriesResponse{
		Device:  device,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		Entries: entries[offset:end],
	})
}

func (h *ReportsAPIHandler) handleProblemList(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ProblemReports(r.URL.Query().Get("device"))
	if err != nil {
		jsonError(w, h.logger, "Failed to list problem reports: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ProblemReportsResponse{Count: len(reports), Reports: reports})
}

func (h *ReportsAPIHandler) handleProblemInfo(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !filestore.ValidProblemFilename(filename) {
		jsonError(w, h.logger, "Invalid filename format", http.StatusBadRequest)
		return
	}

	report, contents, err := h.store.ProblemReportInfo(filename)
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, h.logger, "Problem report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, h.logger, "Error reading report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ProblemReportInfoResponse{
		Device:    report.Device,
		File:      report.File,
		Timestamp: report.Timestamp,
		Size:      report.Size,
		Modified:  report.Modified,
		Contents:  contents,
	})
}

func (h *ReportsAPIHandler) handleProblemDownload(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !filestore.ValidProblemFilename(filename) {
		jsonError(w, h.logger, "Invalid filename format", http.StatusBadRequest)
		return
	}

	path, err := h.store.ProblemArchivePath(filename)
	if errors.Is(err, os.ErrNotExist) {
		jsonError(w, h.logger, "Problem report not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, h.logger, "Error reading report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeFile(w, r, path)
}

func (h *ReportsAPIHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.store.Summarize()
	if err != nil {
		jsonError(w, h.logger, "Failed to summarize reports: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var resp ReportsSummaryResponse
	resp.QualityReports.DeviceCount = sum.QualityDeviceCount
	resp.QualityReports.TotalEntries = sum.QualityEntryCount
	resp.ProblemReports.FileCount = sum.ProblemFileCount
	resp.ProblemReports.DeviceCount = sum.ProblemDeviceCount
	resp.ProblemReports.TotalSizeBytes = sum.ProblemTotalBytes
	resp.ReportsDirectory = sum.ReportsDir
	writeJSON(w, http.StatusOK, resp)
}
