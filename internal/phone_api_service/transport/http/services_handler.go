package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	"github.com/rsp2k/usecallmanager-services/internal/phonexml"
)

// ServicesHandler serves the top-level services menu and the live
// parked calls view.
type ServicesHandler struct {
	runner ami.Runner
	logger *slog.Logger
}

func NewServicesHandler(runner ami.Runner, logger *slog.Logger) *ServicesHandler {
	return &ServicesHandler{
		runner: runner,
		logger: logger.With("handler", "services"),
	}
}

// RegisterRoutes registers service menu routes with the given router.
func (h *ServicesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/services", h.handleMenu)
	r.Get("/services/parked-calls", h.handleParkedCalls)
}

func (h *ServicesHandler) handleMenu(w http.ResponseWriter, r *http.Request) {
	class := deviceClass(r)
	base := baseURL(r)

	body, err := phonexml.RenderMenu("Services", []phonexml.MenuItem{
		{Name: "Parked Calls", URL: base + "/services/parked-calls"},
	}, class, []phonexml.SoftKeyItem{
		phonexml.SoftKey("Exit", phonexml.RoleExit, class, "Init:Services"),
		phonexml.SoftKey("Select", phonexml.RoleSelect, class, "SoftKey:Select"),
	})
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}

func (h *ServicesHandler) handleParkedCalls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	class := deviceClass(r)
	base := baseURL(r)

	var calls []ami.ParkedCall
	err := h.runner.Do(ctx, func(q ami.Querier) error {
		var qerr error
		calls, qerr = q.ParkedCalls(ctx)
		return qerr
	})
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}

	slots := make([]phonexml.DialEntry, 0, len(calls))
	for _, c := range calls {
		slots = append(slots, phonexml.DialEntry{Name: c.DisplayName(), Number: c.Exten})
	}

	body, err := phonexml.RenderParkedCalls(slots, class, base+"/services")
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}
