package http

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsp2k/usecallmanager-services/internal/report_service/repository/filestore"
)

func newProblemHandler(t *testing.T) (*ProblemHandler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := filestore.New(dir, discardLogger())
	require.NoError(t, err)
	h := NewProblemHandler(store, discardLogger())
	h.now = func() time.Time { return time.Date(2024, 3, 15, 10, 30, 5, 0, time.Local) }
	return h, dir
}

func multipartUpload(t *testing.T, device string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("devicename", device))
	if content != nil {
		fw, err := mw.CreateFormFile("prt_file", "report.tar.gz")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "http://phones.local/problem-report", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProblemReportUpload(t *testing.T) {
	h, dir := newProblemHandler(t)
	content := []byte("pretend archive")

	rec := serve(h, multipartUpload(t, "SEP58971ECC97C1", content))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Log saved", rec.Body.String())

	saved, err := os.ReadFile(filepath.Join(dir, "prt-SEP58971ECC97C1-20240315103005.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestProblemReportUploadTrimsDeviceName(t *testing.T) {
	h, dir := newProblemHandler(t)

	// Newer firmware sends the value with a leading newline.
	rec := serve(h, multipartUpload(t, "\nSEP58971ECC97C1", []byte("x")))

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(dir, "prt-SEP58971ECC97C1-20240315103005.tar.gz"))
	assert.NoError(t, err)
}

func TestProblemReportUploadInvalidDevice(t *testing.T) {
	h, _ := newProblemHandler(t)

	rec := serve(h, multipartUpload(t, "not-a-device", []byte("x")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid device", rec.Body.String())
}

func TestProblemReportUploadMissingFile(t *testing.T) {
	h, _ := newProblemHandler(t)

	rec := serve(h, multipartUpload(t, "SEP58971ECC97C1", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Missing problem report", rec.Body.String())
}
