package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsp2k/usecallmanager-services/internal/directory_service/domain"
)

func entryNames(entries []domain.Entry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func TestLookupLetterGroup(t *testing.T) {
	idx := BuildIndex([]domain.Entry{
		{Extension: "100", Name: "Alice Anderson"},
		{Extension: "101", Name: "Bob Brown"},
		{Extension: "102", Name: "Carol Chen"},
	})

	got, err := idx.Lookup("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Anderson", "Bob Brown", "Carol Chen"}, entryNames(got))
}

func TestLookupReturnsExactlyGroupMembers(t *testing.T) {
	entries := []domain.Entry{
		{Extension: "100", Name: "Alice"},
		{Extension: "101", Name: "dave"},
		{Extension: "102", Name: "Erin"},
		{Extension: "103", Name: "Frank"},
		{Extension: "104", Name: "Peggy"},
		{Extension: "105", Name: "Quentin"},
		{Extension: "106", Name: "Sybil"},
		{Extension: "107", Name: "Walter"},
		{Extension: "108", Name: "Zoe"},
	}
	idx := BuildIndex(entries)

	cases := map[string][]string{
		"2": {"Alice"},
		"3": {"dave", "Erin", "Frank"},
		"7": {"Peggy", "Quentin", "Sybil"},
		"9": {"Walter", "Zoe"},
		"4": nil,
	}
	for keypad, want := range cases {
		got, err := idx.Lookup(keypad)
		require.NoError(t, err, "keypad %s", keypad)
		assert.Equal(t, want, entryNames(got), "keypad %s", keypad)
	}
}

func TestLookupMultiDigitRefinement(t *testing.T) {
	idx := BuildIndex([]domain.Entry{
		{Extension: "100", Name: "Anna"},   // A-N -> 2 then 6
		{Extension: "101", Name: "Albert"}, // A-L -> 2 then 5
		{Extension: "102", Name: "Bo"},     // B-O -> 2 then 6
	})

	got, err := idx.Lookup("26")
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Bo"}, entryNames(got))

	got, err = idx.Lookup("25")
	require.NoError(t, err)
	assert.Equal(t, []string{"Albert"}, entryNames(got))
}

func TestLookupInvalidDigit(t *testing.T) {
	idx := BuildIndex(nil)
	for _, keypad := range []string{"", "1", "0", "2x", "*", "2 3"} {
		_, err := idx.Lookup(keypad)
		assert.ErrorIs(t, err, domain.ErrInvalidKeypadIndex, "keypad %q", keypad)
	}
}

func TestBuildIndexSortsAndExcludes(t *testing.T) {
	idx := BuildIndex([]domain.Entry{
		{Extension: "202", Name: "brown, Ada"},
		{Extension: "201", Name: "Brown, Ada"},
		{Extension: "203", Name: `"Quoted" Name`}, // leading non-alpha: bucketed under Q
		{Extension: "204", Name: "12345"},         // no letter at all: excluded
		{Extension: "205", Name: ""},
	})

	b, err := idx.Lookup("2")
	require.NoError(t, err)
	require.Len(t, b, 2)
	assert.Equal(t, "201", b[0].Extension, "case-insensitive tie breaks on extension")
	assert.Equal(t, "202", b[1].Extension)

	q, err := idx.Lookup("7")
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "203", q[0].Extension)
}

func TestBuildIndexEmpty(t *testing.T) {
	idx := BuildIndex(nil)
	for _, d := range []string{"2", "3", "4", "5", "6", "7", "8", "9"} {
		got, err := idx.Lookup(d)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestPage(t *testing.T) {
	entries := []domain.Entry{
		{Extension: "100"}, {Extension: "101"}, {Extension: "102"},
		{Extension: "103"}, {Extension: "104"},
	}

	page, more := Page(entries, 0, 2)
	assert.Len(t, page, 2)
	assert.True(t, more)

	page, more = Page(entries, 4, 2)
	assert.Len(t, page, 1)
	assert.False(t, more)

	page, more = Page(entries, 3, 2)
	assert.Len(t, page, 2)
	assert.False(t, more, "hasMore is false exactly when offset+limit reaches the total")
}

func TestPageOffsetPastEnd(t *testing.T) {
	entries := []domain.Entry{{Extension: "100"}, {Extension: "101"}}
	for _, offset := range []int{2, 3, 100} {
		page, more := Page(entries, offset, 10)
		assert.Empty(t, page, "offset %d", offset)
		assert.False(t, more, "offset %d", offset)
	}
}

func TestSearch(t *testing.T) {
	entries := []domain.Entry{
		{Extension: "102", Name: "Carol Chen"},
		{Extension: "100", Name: "Alice Anderson"},
		{Extension: "101", Name: "Bob Brown"},
	}

	got := Search(entries, "aN")
	assert.Equal(t, []string{"Alice Anderson"}, entryNames(got))

	got = Search(entries, "10")
	assert.Equal(t, []string{"Alice Anderson", "Bob Brown", "Carol Chen"}, entryNames(got), "extensions match too, result in sort order")

	assert.Empty(t, Search(entries, "zzz"))
}
