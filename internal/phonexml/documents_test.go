package phonexml

import (
	"encoding/xml"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDirectoryPageRoundTrip(t *testing.T) {
	entries := []DialEntry{
		{Name: "Alice Anderson", Number: "100"},
		{Name: "Bob Brown", Number: "+49 89 101"},
		{Name: "Carol Chen", Number: "102"},
	}

	out, err := RenderDirectoryPage("Local Directory", entries, Class8800, Nav{ExitURL: "http://svc/directory"})
	require.NoError(t, err)

	var doc Directory
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Entries, len(entries))
	for i, e := range entries {
		dial, err := url.QueryUnescape(doc.Entries[i].Telephone)
		require.NoError(t, err)
		assert.Equal(t, e.Number, dial, "dial strings survive the document round trip in order")
	}
}

func TestRenderDirectoryPageEscapesNames(t *testing.T) {
	out, err := RenderDirectoryPage("Dir", []DialEntry{
		{Name: `Ops <&> "Team"`, Number: "300"},
	}, Class8800, Nav{})
	require.NoError(t, err)

	assert.NotContains(t, out, `Ops <&>`, "raw markup characters never pass through")

	var doc Directory
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, `Ops <&> "Team"`, doc.Entries[0].Name)
}

func TestRenderDirectoryPageNavSoftKeys(t *testing.T) {
	out, err := RenderDirectoryPage("Dir 1/2", []DialEntry{{Name: "A", Number: "1"}}, Class79xx, Nav{
		ExitURL: "http://svc/directory",
		NextURL: "http://svc/directory/entries?index=2ABC&page=2",
	})
	require.NoError(t, err)

	var doc Directory
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))

	keys := map[string]SoftKeyItem{}
	for _, k := range doc.SoftKeys {
		keys[k.Name] = k
	}
	require.Contains(t, keys, "Next")
	require.Contains(t, keys, "Exit")
	require.NotContains(t, keys, "Previous", "no previous key on the first page")
	assert.Equal(t, 2, keys["Next"].Position, "7900 series puts Next on position 2")
	assert.Equal(t, 3, keys["Exit"].Position)
	assert.Equal(t, "Dial", doc.SoftKeys[1].Name, "7900 series labels the select key Dial")
	assert.Equal(t, "Select entry", doc.Prompt)
}

func TestRenderDirectoryPageTooManyItems(t *testing.T) {
	entries := make([]DialEntry, LimitsFor(Class8800).MaxItems+1)
	for i := range entries {
		entries[i] = DialEntry{Name: "N", Number: "1"}
	}
	_, err := RenderDirectoryPage("Dir", entries, Class8800, Nav{})
	assert.ErrorIs(t, err, ErrTooManyItems)
}

func TestTruncateAppendsMarker(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := Truncate(long, 64)
	assert.Len(t, []rune(got), 64)
	assert.True(t, strings.HasSuffix(got, "..."), "truncation is signaled, never silent")

	assert.Equal(t, "short", Truncate("short", 64))
}

func TestRenderParkedCalls(t *testing.T) {
	out, err := RenderParkedCalls([]DialEntry{
		{Name: "Alice Anderson", Number: "701"},
		{Name: "101", Number: "702"},
	}, Class8800, "http://svc/services")
	require.NoError(t, err)

	var doc Directory
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Parked Calls", doc.Title)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "701", doc.Entries[0].Telephone)

	var names []string
	for _, k := range doc.SoftKeys {
		names = append(names, k.Name)
	}
	assert.Equal(t, []string{"Exit", "Call", "Update"}, names)
}

func TestRenderQualityReasons(t *testing.T) {
	reasons := []Reason{
		{Code: "0", Text: "Audio had echo"},
		{Code: "4", Text: "Other issue (unspecified)"},
	}
	out, err := RenderQualityReasons(reasons, Class8800, "http://svc/quality-report/send?name=SEP001122334455")
	require.NoError(t, err)

	var doc Menu
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "QueryStringParam:reason=0", doc.Items[0].URL)
	assert.Equal(t, "Audio had echo", doc.Items[0].Name)
	assert.Equal(t, "Submit", doc.SoftKeys[0].Name)
}

func TestRenderText(t *testing.T) {
	out, err := RenderText("How To Use",
		"Use the keypad or navigation key to select the first letter of the person's name.",
		Class79xx,
		[]SoftKeyItem{SoftKey("Back", RoleExit, Class79xx, "SoftKey:Exit")})
	require.NoError(t, err)

	var doc Text
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "How To Use", doc.Title)
	assert.Equal(t, "Your current options", doc.Prompt)
	require.Len(t, doc.SoftKeys, 1)
	assert.Equal(t, 3, doc.SoftKeys[0].Position)
}

func TestClassFromModelName(t *testing.T) {
	assert.Equal(t, Class79xx, ClassFromModelName("CP-7961G"))
	assert.Equal(t, Class8800, ClassFromModelName("CP-8841"))
	assert.Equal(t, Class8800, ClassFromModelName(""))
}
