package http

import "github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"

// GenericErrorResponse for API errors
type GenericErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// DirectoryEntryDTO is one directory row in the browser API.
type DirectoryEntryDTO struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}

// DirectoryListResponse for GET /directory/list
type DirectoryListResponse struct {
	Total   int                 `json:"total"`
	Offset  int                 `json:"offset"`
	Limit   int                 `json:"limit"`
	Entries []DirectoryEntryDTO `json:"entries"`
}

// DirectoryListQuery binds the /directory/list query parameters.
type DirectoryListQuery struct {
	Search string `validate:"omitempty,max=100"`
	Sort   string `validate:"omitempty,oneof=name extension"`
	Order  string `validate:"omitempty,oneof=asc desc"`
	Limit  int    `validate:"min=1,max=500"`
	Offset int    `validate:"min=0"`
}

// DirectoryStatsResponse for GET /directory/stats
type DirectoryStatsResponse struct {
	TotalEntries       int            `json:"total_entries"`
	NamedEntries       int            `json:"named_entries"`
	LetterDistribution map[string]int `json:"letter_distribution"`
}

// ExportResponse wraps text export formats for GET /directory/export.
// The xlsx format streams the workbook directly instead.
type ExportResponse struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Content     string `json:"content"`
}

// QualityDevicesResponse for GET /api/reports/quality
type QualityDevicesResponse struct {
	Count   int                       `json:"count"`
	Devices []filestore.QualityDevice `json:"devices"`
}

// QualityEntriesResponse for GET /api/reports/quality/{device}
type QualityEntriesResponse struct {
	Device  string                   `json:"device"`
	Total   int                      `json:"total"`
	Offset  int                      `json:"offset"`
	Limit   int                      `json:"limit"`
	Entries []filestore.QualityEntry `json:"entries"`
}

// ProblemReportsResponse for GET /api/reports/problem
type ProblemReportsResponse struct {
	Count   int                       `json:"count"`
	Reports []filestore.ProblemReport `json:"reports"`
}

// ProblemReportInfoResponse for GET /api/reports/problem/{filename}
type ProblemReportInfoResponse struct {
	Device    string                   `json:"device"`
	File      string                   `json:"file"`
	Timestamp string                   `json:"timestamp,omitempty"`
	Size      int64                    `json:"size"`
	Modified  string                   `json:"modified"`
	Contents  []filestore.ArchiveEntry `json:"contents"`
}

// ReportsSummaryResponse for GET /api/reports/summary
type ReportsSummaryResponse struct {
	QualityReports struct {
		DeviceCount  int `json:"device_count"`
		TotalEntries int `json:"total_entries"`
	} `json:"quality_reports"`
	ProblemReports struct {
		FileCount      int   `json:"file_count"`
		DeviceCount    int   `json:"device_count"`
		TotalSizeBytes int64 `json:"total_size_bytes"`
	} `json:"problem_reports"`
	ReportsDirectory string `json:"reports_directory"`
}
