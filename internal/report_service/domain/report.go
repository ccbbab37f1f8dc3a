package domain

import (
	"errors"
	"regexp"
	"time"
)

var (
	// ErrDeviceNotFound indicates the device has no current registration
	// entry. Business-level: never retried.
	ErrDeviceNotFound = errors.New("device not registered")
	// ErrInvalidDeviceName indicates a name that is not a Cisco device
	// identifier. Rejected before any network call.
	ErrInvalidDeviceName = errors.New("invalid device name")
	// ErrUnknownReason indicates a reason code outside the report table.
	ErrUnknownReason = errors.New("unknown report reason")
)

// deviceNamePattern is the Cisco device identifier: SEP plus the MAC
// address as 12 uppercase hex digits.
var deviceNamePattern = regexp.MustCompile(`^SEP[0-9A-F]{12}$`)

// ValidDeviceName reports whether name is a well-formed device identifier.
func ValidDeviceName(name string) bool {
	return deviceNamePattern.MatchString(name)
}

// Reason is one quality-report reason choice offered on the phone.
type Reason struct {
	Code string
	Text string
}

// Reasons is the fixed reason table, in menu order.
var Reasons = []Reason{
	{Code: "0", Text: "Audio had echo"},
	{Code: "1", Text: "Audio had crackling"},
	{Code: "2", Text: "I could not hear them"},
	{Code: "3", Text: "They could not hear me"},
	{Code: "4", Text: "Other issue (unspecified)"},
}

// ReasonText resolves a reason code, or fails with ErrUnknownReason.
func ReasonText(code string) (string, error) {
	for _, r := range Reasons {
		if r.Code == code {
			return r.Text, nil
		}
	}
	return "", ErrUnknownReason
}

// QualityReport is one captured report: the operator-entered reason plus
// the live transport statistics of the device's session at capture time.
// Append-only; persistence belongs to the report store collaborator.
type QualityReport struct {
	Timestamp time.Time `json:"-"`
	Device    string    `json:"-"`
	IPAddress string    `json:"ip_address"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	RTPRxStat string    `json:"rtp_rx_stat"`
	RTPTxStat string    `json:"rtp_tx_stat"`
}
