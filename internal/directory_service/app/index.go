package app

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/rsp2k/usecallmanager-services/internal/directory_service/domain"
)

// letterGroups is the fixed 12-key keypad table: digit 2 carries ABC
// through digit 9 carrying WXYZ, with four letters on 7 and 9.
var letterGroups = map[byte]string{
	'2': "ABC",
	'3': "DEF",
	'4': "GHI",
	'5': "JKL",
	'6': "MNO",
	'7': "PQRS",
	'8': "TUV",
	'9': "WXYZ",
}

// Index partitions directory entries into per-letter buckets over the
// first alphabetic letter of the display name, the way a 12-key phone
// keypad searches a directory.
type Index struct {
	buckets map[rune][]domain.Entry
}

// sortKey is the display name with leading non-alphabetic runes dropped,
// uppercased; "" means the entry has no valid letter and is excluded.
func sortKey(name string) string {
	for i, r := range name {
		if unicode.IsLetter(r) {
			return strings.ToUpper(name[i:])
		}
	}
	return ""
}

// sortEntries orders by display name, case-insensitive, ties broken by
// extension ascending.
func sortEntries(entries []domain.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a := strings.ToUpper(entries[i].Name)
		b := strings.ToUpper(entries[j].Name)
		if a != b {
			return a < b
		}
		return entries[i].Extension < entries[j].Extension
	})
}

// BuildIndex partitions entries into letter buckets. Entries whose name
// has no alphabetic character are excluded. An empty source yields an
// empty index.
func BuildIndex(entries []domain.Entry) *Index {
	idx := &Index{buckets: make(map[rune][]domain.Entry)}
	for _, e := range entries {
		key := sortKey(e.Name)
		if key == "" {
			continue
		}
		letter := rune(key[0])
		idx.buckets[letter] = append(idx.buckets[letter], e)
	}
	for letter := range idx.buckets {
		sortEntries(idx.buckets[letter])
	}
	return idx
}

// Lookup decodes a keypad digit string and returns the matching entries:
// digit k constrains the k-th letter of the name to that digit's letter
// group. Matching buckets are concatenated in letter order. Digits
// outside 2-9 fail with ErrInvalidKeypadIndex.
func (idx *Index) Lookup(keypad string) ([]domain.Entry, error) {
	if keypad == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidKeypadIndex)
	}
	for i := 0; i < len(keypad); i++ {
		if _, ok := letterGroups[keypad[i]]; !ok {
			return nil, fmt.Errorf("%w: digit %q", domain.ErrInvalidKeypadIndex, keypad[i])
		}
	}

	var matched []domain.Entry
	for _, letter := range letterGroups[keypad[0]] {
		for _, e := range idx.buckets[letter] {
			if matchesRefinement(sortKey(e.Name), keypad) {
				matched = append(matched, e)
			}
		}
	}
	return matched, nil
}

// matchesRefinement checks digits beyond the first against the
// corresponding letter positions of the normalized name.
func matchesRefinement(key, keypad string) bool {
	for i := 1; i < len(keypad); i++ {
		if i >= len(key) {
			return false
		}
		if !strings.ContainsRune(letterGroups[keypad[i]], rune(key[i])) {
			return false
		}
	}
	return true
}

// Letters returns the letter group for one keypad digit, or "" when the
// digit carries none. Used by the phone index screen (rows "2ABC" etc).
func Letters(digit byte) string {
	return letterGroups[digit]
}

// Page returns a contiguous slice of entries plus a flag telling whether
// more entries follow. An offset at or past the end yields an empty page.
func Page(entries []domain.Entry, offset, limit int) ([]domain.Entry, bool) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, offset < len(entries)
	}
	if offset >= len(entries) {
		return nil, false
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], end < len(entries)
}

// FilterInitial keeps entries whose display name starts with one of the
// given characters, compared case-insensitively. The phone index screen
// uses rows like "2ABC" as the character set.
func FilterInitial(entries []domain.Entry, chars string) []domain.Entry {
	chars = strings.ToUpper(chars)
	var matched []domain.Entry
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		first := []rune(strings.ToUpper(name))[0]
		if strings.ContainsRune(chars, first) {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)
	return matched
}

// Search filters entries by case-insensitive substring match on the
// display name or extension, returned in standard sort order. No match
// yields an empty result, not an error.
func Search(entries []domain.Entry, substring string) []domain.Entry {
	needle := strings.ToLower(substring)
	var matched []domain.Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Extension), needle) {
			matched = append(matched, e)
		}
	}
	sortEntries(matched)
	return matched
}
