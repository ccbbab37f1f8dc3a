package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"
)

// maxProblemReportSize bounds the in-memory portion of a PRT upload.
const maxProblemReportSize = 32 << 20

// ProblemHandler accepts problem report archive uploads from phones.
type ProblemHandler struct {
	store  *filestore.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewProblemHandler(store *filestore.Store, logger *slog.Logger) *ProblemHandler {
	return &ProblemHandler{
		store:  store,
		logger: logger.With("handler", "problem_report"),
		now:    time.Now,
	}
}

// RegisterRoutes registers the upload route with the given router.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Post("/problem-report", h.handleUpload)
}

func (h *ProblemHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProblemReportSize); err != nil {
		h.logger.Warn("bad problem report upload", "error", err)
		writePlain(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	// Newer firmware sends the form value with a leading newline.
	device := strings.TrimSpace(r.FormValue("devicename"))
	if !domain.ValidDeviceName(device) {
		writePlain(w, http.StatusForbidden, "Invalid device")
		return
	}

	file, _, err := r.FormFile("prt_file")
	if err != nil {
		writePlain(w, http.StatusInternalServerError, "Missing problem report")
		return
	}
	defer file.Close()

	name, err := h.store.SaveProblemArchive(device, h.now(), file)
	if err != nil {
		h.logger.Error("problem report save failed", "device", device, "error", err)
		writePlain(w, http.StatusInternalServerError, "Unable to save report")
		return
	}

	h.logger.Info("problem report saved", "device", device, "file", name)
	writePlain(w, http.StatusOK, "Log saved")
}
