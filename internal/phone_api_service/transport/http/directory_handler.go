package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rsp2k/usecallmanager-services/internal/directory_service/app"
	"github.com/rsp2k/usecallmanager-services/internal/phonexml"
)

// dialIndices are the index rows shown on the directory letter screen,
// one per keypad key.
var dialIndices = []string{"1", "2ABC", "3DEF", "4GHI", "5JKL", "6MNO", "7PQRS", "8TUV", "9WXYZ", "0"}

const entriesPerPage = 10

// DirectoryHandler serves the phone-facing directory screens.
type DirectoryHandler struct {
	directory *app.Service
	logger    *slog.Logger
}

func NewDirectoryHandler(directory *app.Service, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
		logger:    logger.With("handler", "directory"),
	}
}

// RegisterRoutes registers phone directory routes with the given router.
func (h *DirectoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/directory", h.handleIndex)
	r.Get("/directory/entries", h.handleEntries)
	r.Get("/directory/help", h.handleHelp)
	r.Get("/directory/79xx", h.handleMenuItem)
}

func (h *DirectoryHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	class := deviceClass(r)
	base := baseURL(r)

	items := make([]phonexml.MenuItem, 0, len(dialIndices))
	for _, index := range dialIndices {
		items = append(items, phonexml.MenuItem{
			Name: index,
			URL:  base + "/directory/entries?index=" + url.QueryEscape(index),
		})
	}

	selectName := "View"
	if class == phonexml.Class79xx {
		selectName = "Select"
	}
	body, err := phonexml.RenderMenu("Local Directory", items, class, []phonexml.SoftKeyItem{
		phonexml.SoftKey("Exit", phonexml.RoleExit, class, "Init:Directories"),
		phonexml.SoftKey(selectName, phonexml.RoleSelect, class, "SoftKey:Select"),
		phonexml.SoftKey("Help", phonexml.RoleUpdate, class, base+"/directory/help"),
	})
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}

func (h *DirectoryHandler) handleEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	class := deviceClass(r)
	base := baseURL(r)

	index := r.URL.Query().Get("index")
	if index == "" {
		h.handleIndex(w, r)
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	all, err := h.directory.Entries(ctx)
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	entries := app.FilterInitial(all, index)

	totalPages := (len(entries) + entriesPerPage - 1) / entriesPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	pageEntries, _ := app.Page(entries, (page-1)*entriesPerPage, entriesPerPage)

	title := index
	if totalPages > 1 {
		title = fmt.Sprintf("%s %d/%d", index, page, totalPages)
	}

	nav := phonexml.Nav{ExitURL: base + "/directory"}
	if page < totalPages {
		nav.NextURL = fmt.Sprintf("%s/directory/entries?index=%s&page=%d", base, url.QueryEscape(index), page+1)
	}
	if page > 1 {
		nav.PrevURL = fmt.Sprintf("%s/directory/entries?index=%s&page=%d", base, url.QueryEscape(index), page-1)
	}

	dialEntries := make([]phonexml.DialEntry, 0, len(pageEntries))
	for _, e := range pageEntries {
		dialEntries = append(dialEntries, phonexml.DialEntry{Name: e.Name, Number: e.Extension})
	}

	body, err := phonexml.RenderDirectoryPage(title, dialEntries, class, nav)
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}

func (h *DirectoryHandler) handleHelp(w http.ResponseWriter, r *http.Request) {
	class := deviceClass(r)

	body, err := phonexml.RenderText("How To Use",
		"Use the keypad or navigation key to select the first letter of the person's name.",
		class, []phonexml.SoftKeyItem{
			phonexml.SoftKey("Back", phonexml.RoleExit, class, "SoftKey:Exit"),
		})
	if err != nil {
		phoneError(w, h.logger, class, err)
		return
	}
	writeXML(w, body)
}

// handleMenuItem wraps the directory index in a one-item menu. The 7900
// series firmware needs a menu level above external directory URLs.
func (h *DirectoryHandler) handleMenuItem(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)

	body, err := phonexml.RenderMenu("Local Directory", []phonexml.MenuItem{
		{Name: "Local Directory", URL: base + "/directory"},
	}, phonexml.Class79xx, nil)
	if err != nil {
		phoneError(w, h.logger, phonexml.Class79xx, err)
		return
	}
	writeXML(w, body)
}
