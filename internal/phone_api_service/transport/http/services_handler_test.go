package http

import (
	"encoding/xml"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
)

func TestServicesMenu(t *testing.T) {
	h := NewServicesHandler(queryRunner{new(MockQuerier)}, discardLogger())

	rec := serve(h, phoneRequest(http.MethodGet, "http://phones.local/services", "CP-8841"))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc menuDoc
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Services", doc.Title)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Parked Calls", doc.Items[0].Name)
	assert.Contains(t, doc.Items[0].URL, "/services/parked-calls")
}

func TestParkedCallsOrderAndDialStrings(t *testing.T) {
	q := new(MockQuerier)
	q.On("ParkedCalls", mock.Anything).Return([]ami.ParkedCall{
		{Exten: "701", CallerIDName: "Alice Anderson", CallerIDNum: "100"},
		{Exten: "702", CallerIDName: "", CallerIDNum: "555 0102"},
	}, nil)
	h := NewServicesHandler(queryRunner{q}, discardLogger())

	rec := serve(h, phoneRequest(http.MethodGet, "http://phones.local/services/parked-calls", "CP-8841"))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc directoryDoc
	require.NoError(t, xml.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "Alice Anderson", doc.Entries[0].Name)
	assert.Equal(t, "701", doc.Entries[0].Telephone)

	// Name falls back to the caller number; dial string survives escaping.
	assert.Equal(t, "555 0102", doc.Entries[1].Name)
	number, err := url.QueryUnescape(doc.Entries[1].Telephone)
	require.NoError(t, err)
	assert.Equal(t, "702", number)

	names := make([]string, 0, len(doc.SoftKeys))
	for _, k := range doc.SoftKeys {
		names = append(names, k.Name)
	}
	assert.Equal(t, []string{"Exit", "Call", "Update"}, names)
}

func TestParkedCallsManagerDown(t *testing.T) {
	q := new(MockQuerier)
	q.On("ParkedCalls", mock.Anything).Return(nil, ami.ErrTimeout)
	h := NewServicesHandler(queryRunner{q}, discardLogger())

	rec := serve(h, phoneRequest(http.MethodGet, "http://phones.local/services/parked-calls", "CP-8841"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "CiscoIPPhoneText")
}
