// Package http exposes two surfaces over one chi router: the XML menu
// endpoints consumed by the phones and the JSON endpoints consumed by
// browsers. Phone endpoints render through the phonexml package and
// answer errors with plain text or a text document the phone can show.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	"github.com/rsp2k/usecallmanager-services/internal/phonexml"
)

// modelHeader carries the requesting phone's model name.
const modelHeader = "X-CiscoIPPhoneModelName"

func deviceClass(r *http.Request) phonexml.DeviceClass {
	return phonexml.ClassFromModelName(r.Header.Get(modelHeader))
}

// baseURL reconstructs the externally visible service root so rendered
// documents can link back to it.
func baseURL(r *http.Request) string {
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.Write([]byte(body))
}

func writePlain(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Warn("API Error Response", "status_code", statusCode, "message", message)
	writeJSON(w, statusCode, GenericErrorResponse{Error: message})
}

// phoneError maps a failed manager operation to a document the phone
// can display instead of a blank screen.
func phoneError(w http.ResponseWriter, logger *slog.Logger, class phonexml.DeviceClass, err error) {
	statusCode := http.StatusInternalServerError
	message := "An internal error occurred."
	switch {
	case errors.Is(err, ami.ErrTimeout), errors.Is(err, ami.ErrConnection):
		statusCode = http.StatusServiceUnavailable
		message = "Phone system is not responding. Try again later."
	case errors.Is(err, ami.ErrProtocol):
		statusCode = http.StatusBadGateway
		message = "Phone system returned an unexpected reply."
	}
	logger.Error("phone endpoint failed", "status_code", statusCode, "error", err)

	body, renderErr := phonexml.RenderText("Error", message, class, []phonexml.SoftKeyItem{
		phonexml.SoftKey("Exit", phonexml.RoleExit, class, "SoftKey:Exit"),
	})
	if renderErr != nil {
		writePlain(w, statusCode, message)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write([]byte(body))
}
