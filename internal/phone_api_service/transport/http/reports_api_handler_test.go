package http

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"
)

func newReportsHandler(t *testing.T) (*ReportsAPIHandler, *filestore.Store) {
	t.Helper()
	store, err := filestore.New(t.TempDir(), discardLogger())
	require.NoError(t, err)
	return NewReportsAPIHandler(store, discardLogger()), store
}

func seedQuality(t *testing.T, store *filestore.Store, device string, count int) {
	t.Helper()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	for i := 0; i < count; i++ {
		require.NoError(t, store.AppendQuality(domain.QualityReport{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Device:    device,
			IPAddress: "10.0.0.21",
			Status:    "OK (4 ms)",
			Reason:    "Audio had echo",
		}))
	}
}

func seedProblem(t *testing.T, store *filestore.Store, device string, ts time.Time) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "console.log", Mode: 0o644, Size: 4, Typeflag: tar.TypeReg}))
	_, err := tw.Write([]byte("boot"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	name, err := store.SaveProblemArchive(device, ts, &buf)
	require.NoError(t, err)
	return name
}

func TestReportsQualityDevices(t *testing.T) {
	h, store := newReportsHandler(t)
	seedQuality(t, store, "SEP58971ECC97C1", 2)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/quality", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QualityDevicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "SEP58971ECC97C1", resp.Devices[0].Device)
	assert.Equal(t, 2, resp.Devices[0].EntryCount)
}

func TestReportsQualityEntriesPagination(t *testing.T) {
	h, store := newReportsHandler(t)
	seedQuality(t, store, "SEP58971ECC97C1", 5)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/quality/SEP58971ECC97C1?limit=2&offset=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp QualityEntriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Total)
	require.Len(t, resp.Entries, 2)
	// Entries come newest first; offset 1 skips the latest.
	assert.Equal(t, "2024-03-15 10:03:00", resp.Entries[0].Timestamp)
}

func TestReportsQualityEntriesNotFound(t *testing.T) {
	h, _ := newReportsHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/quality/SEP000000000000", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/quality/bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsProblemListAndInfo(t *testing.T) {
	h, store := newReportsHandler(t)
	name := seedProblem(t, store, "SEP58971ECC97C1", time.Date(2024, 3, 15, 10, 30, 5, 0, time.Local))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/problem", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list ProblemReportsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, name, list.Reports[0].File)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/problem/"+name, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var info ProblemReportInfoResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "SEP58971ECC97C1", info.Device)
	require.Len(t, info.Contents, 1)
	assert.Equal(t, "console.log", info.Contents[0].Name)
}

func TestReportsProblemDownload(t *testing.T) {
	h, store := newReportsHandler(t)
	name := seedProblem(t, store, "SEP58971ECC97C1", time.Date(2024, 3, 15, 10, 30, 5, 0, time.Local))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/problem/"+name+"/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/gzip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), name)
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestReportsProblemBadFilename(t *testing.T) {
	h, _ := newReportsHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/problem/notaprt.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/problem/prt-SEP000000000000-20240101000000.tar.gz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportsSummary(t *testing.T) {
	h, store := newReportsHandler(t)
	seedQuality(t, store, "SEP58971ECC97C1", 3)
	seedProblem(t, store, "SEP58971ECC97C1", time.Date(2024, 3, 15, 10, 30, 5, 0, time.Local))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/reports/summary", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReportsSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.QualityReports.DeviceCount)
	assert.Equal(t, 3, resp.QualityReports.TotalEntries)
	assert.Equal(t, 1, resp.ProblemReports.FileCount)
}
