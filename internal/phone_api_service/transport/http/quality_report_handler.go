package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	"github.com/rsp2k/usecallmanager-services/internal/phonexml"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/app"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
)

// QualityHandler serves the quality report reason menu and submission.
type QualityHandler struct {
	capture *app.CaptureService
	logger  *slog.Logger
}

func NewQualityHandler(capture *app.CaptureService, logger *slog.Logger) *QualityHandler {
	return &QualityHandler{
		capture: capture,
		logger:  logger.With("handler", "quality_report"),
	}
}

// RegisterRoutes registers quality report routes with the given router.
func (h *QualityHandler) RegisterRoutes(r chi.Router) {
	r.Get("/quality-report", h.handleMenu)
	r.Get("/quality-report/send", h.handleSend)
}

func (h *QualityHandler) handleMenu(w http.ResponseWriter, r *http.Request) {
	class := deviceClass(r)
	base := baseURL(r)

	name := r.URL.Query().Get("name")
	if !domain.ValidDeviceName(name) {
		writePlain(w, http.StatusForbidden, "Invalid device")
		return
	}

	reasons := make([]phonexml.Reason, 0, len(domain.Reasons))
	for _, reason := range domain.Reasons {
		reasons = append(reasons, phonexml.Reason{Code: reason.Code, Text: reason.Text})
	}
	submitURL := base + "/quality-report/send?name=" + url.QueryEscape(name)

	body, err := phonexml.RenderQualityReasons(reasons, class, submitURL)
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}

func (h *QualityHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	class := deviceClass(r)

	name := r.URL.Query().Get("name")
	reason := r.URL.Query().Get("reason")

	report, err := h.capture.Capture(ctx, name, reason)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidDeviceName):
		writePlain(w, http.StatusForbidden, "Invalid device")
		return
	case errors.Is(err, domain.ErrUnknownReason):
		writePlain(w, http.StatusBadRequest, "Unknown reason")
		return
	case errors.Is(err, domain.ErrDeviceNotFound):
		h.logger.Warn("quality report for unregistered device", "device", name)
		body, renderErr := phonexml.RenderText("Quality Report",
			"Device is not registered. Nothing was reported.",
			class, []phonexml.SoftKeyItem{
				phonexml.SoftKey("Exit", phonexml.RoleExit, class, "Init:Services"),
			})
		if renderErr != nil {
			writePlain(w, http.StatusNotFound, "Device not registered")
			return
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(body))
		return
	case errors.Is(err, ami.ErrConnection), errors.Is(err, ami.ErrTimeout),
		errors.Is(err, ami.ErrProtocol):
		phoneError(w, h.logger, class, err)
		return
	default:
		phoneError(w, h.logger, class, err)
		return
	}

	body, err := phonexml.RenderText("Quality Report",
		report.Reason+" has been reported.",
		class, []phonexml.SoftKeyItem{
			phonexml.SoftKey("Exit", phonexml.RoleExit, class, "Init:Services"),
		})
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}
