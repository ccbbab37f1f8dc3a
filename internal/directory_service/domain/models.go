package domain

import "errors"

var (
	// ErrInvalidKeypadIndex indicates a keypad digit outside the 2-9
	// letter groups. Rejected before any network call.
	ErrInvalidKeypadIndex = errors.New("invalid keypad index")
)

// Entry is one directory listing: extension number (unique key), display
// name, optional email. Built fresh on each query, never persisted.
type Entry struct {
	Extension string `json:"extension"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
}
