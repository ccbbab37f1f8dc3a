package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/rsp2k/usecallmanager-services/internal/directory_service/app"
	"github.com/rsp2k/usecallmanager-services/internal/directory_service/domain"
)

// DirectoryAPIHandler serves the browser-facing directory endpoints.
type DirectoryAPIHandler struct {
	directory *app.Service
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewDirectoryAPIHandler(directory *app.Service, logger *slog.Logger) *DirectoryAPIHandler {
	return &DirectoryAPIHandler{
		directory: directory,
		validate:  validator.New(),
		logger:    logger.With("handler", "directory_api"),
	}
}

// RegisterRoutes registers directory API routes with the given router.
func (h *DirectoryAPIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/directory/list", h.handleList)
	r.Get("/directory/stats", h.handleStats)
	r.Get("/directory/export", h.handleExport)
}

func (h *DirectoryAPIHandler) listQuery(r *http.Request) (DirectoryListQuery, error) {
	q := DirectoryListQuery{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
		Order:  r.URL.Query().Get("order"),
		Limit:  100,
		Offset: 0,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("limit must be an integer")
		}
		q.Limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("offset must be an integer")
		}
		q.Offset = n
	}
	if err := h.validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func (h *DirectoryAPIHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := h.listQuery(r)
	if err != nil {
		jsonError(w, h.logger, "Invalid query: "+err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.directory.Entries(ctx)
	if err != nil {
		jsonError(w, h.logger, "Failed to query phone system: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	if q.Search != "" {
		entries = app.Search(entries, q.Search)
	}

	switch q.Sort {
	case "extension":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Extension < entries[j].Extension })
	default:
		// Entries arrive in name order already.
	}
	if q.Order == "desc" {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	total := len(entries)
	page, _ := app.Page(entries, q.Offset, q.Limit)

	dtos := make([]DirectoryEntryDTO, 0, len(page))
	for _, e := range page {
		dtos = append(dtos, DirectoryEntryDTO{Extension: e.Extension, Name: e.Name, Email: e.Email})
	}
	writeJSON(w, http.StatusOK, DirectoryListResponse{
		Total:   total,
		Offset:  q.Offset,
		Limit:   q.Limit,
		Entries: dtos,
	})
}

func (h *DirectoryAPIHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.directory.Entries(ctx)
	if err != nil {
		jsonError(w, h.logger, "Failed to query phone system: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	stats := DirectoryStatsResponse{
		TotalEntries:       len(entries),
		LetterDistribution: make(map[string]int),
	}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		stats.NamedEntries++
		first := strings.ToUpper(string([]rune(name)[0]))
		stats.LetterDistribution[first]++
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DirectoryAPIHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	entries, err := h.directory.Entries(ctx)
	if err != nil {
		jsonError(w, h.logger, "Failed to query phone system: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	switch format {
	case "vcard":
		writeJSON(w, http.StatusOK, ExportResponse{
			Format:      "vcard",
			ContentType: "text/vcard",
			Filename:    "directory.vcf",
			Content:     exportVCard(entries),
		})
	case "xlsx":
		h.exportXLSX(w, entries)
	case "csv":
		writeJSON(w, http.StatusOK, ExportResponse{
			Format:      "csv",
			ContentType: "text/csv",
			Filename:    "directory.csv",
			Content:     exportCSV(entries),
		})
	default:
		jsonError(w, h.logger, "Unknown export format: "+format, http.StatusBadRequest)
	}
}

func exportVCard(entries []domain.Entry) string {
	var cards []string
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		card := "BEGIN:VCARD\nVERSION:3.0\nFN:" + e.Name + "\nTEL;TYPE=WORK:" + e.Extension
		if e.Email != "" {
			card += "\nEMAIL;TYPE=WORK:" + e.Email
		}
		card += "\nEND:VCARD"
		cards = append(cards, card)
	}
	return strings.Join(cards, "\n")
}

func exportCSV(entries []domain.Entry) string {
	lines := []string{"Extension,Name,Email"}
	for _, e := range entries {
		safeName := strings.ReplaceAll(e.Name, `"`, `""`)
		lines = append(lines, fmt.Sprintf(`%s,"%s",%s`, e.Extension, safeName, e.Email))
	}
	return strings.Join(lines, "\n")
}

func (h *DirectoryAPIHandler) exportXLSX(w http.ResponseWriter, entries []domain.Entry) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	headers := []string{"Extension", "Name", "Email"}
	for col, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for row, e := range entries {
		values := []string{e.Extension, e.Name, e.Email}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="directory.xlsx"`)
	if err := f.Write(w); err != nil {
		h.logger.Error("xlsx export failed", "error", err)
	}
}
