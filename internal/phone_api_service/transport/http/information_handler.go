package http

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/phonexml"
)

var helpIDPattern = regexp.MustCompile(`^[0-9]+$`)

// helpTopics is the parsed form of the phone help file: a flat list of
// HelpItem elements keyed by numeric ID.
type helpTopics struct {
	Items []helpTopic `xml:"HelpItem"`
}

type helpTopic struct {
	ID    string `xml:"ID"`
	Title string `xml:"Title"`
	Text  string `xml:"Text"`
}

// InformationHandler serves help text for the 7900 series Info button.
// Topics come from an operator-maintained XML file; an unknown or
// unreadable topic falls back to a stock message.
type InformationHandler struct {
	helpFile string
	logger   *slog.Logger
}

func NewInformationHandler(helpFile string, logger *slog.Logger) *InformationHandler {
	return &InformationHandler{
		helpFile: helpFile,
		logger:   logger.With("handler", "information"),
	}
}

// RegisterRoutes registers the information route with the given router.
func (h *InformationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/information", h.handleInformation)
}

func (h *InformationHandler) handleInformation(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if !helpIDPattern.MatchString(id) {
		writePlain(w, http.StatusInternalServerError, "Invalid id")
		return
	}

	title := "Information"
	helpText := "Sorry, no help on that topic."

	if raw, err := os.ReadFile(h.helpFile); err == nil {
		var topics helpTopics
		if err := xml.Unmarshal(raw, &topics); err != nil {
			h.logger.Warn("unparseable help file", "file", h.helpFile, "error", err)
		} else {
			for _, topic := range topics.Items {
				if topic.ID != id {
					continue
				}
				if topic.Title != "" {
					title = topic.Title
				}
				if topic.Text != "" {
					helpText = topic.Text
				}
				break
			}
		}
	}

	// Only the 7900 series has an Info button.
	body, err := phonexml.RenderText(title, helpText, phonexml.Class79xx, []phonexml.SoftKeyItem{
		phonexml.SoftKey("Exit", phonexml.RoleExit, phonexml.Class79xx, "Key:Info"),
	})
	if err != nil {
		phoneError(w, h.logger, phonexml.Class79xx, err)
		return
	}
	writeXML(w, body)
}
