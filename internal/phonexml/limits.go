package phonexml

import "strings"

// DeviceClass is the phone hardware family. The 7900 series needs
// different softkey positions, prompts, and tighter field lengths than
// the 7800/8800 series.
type DeviceClass int

const (
	Class8800 DeviceClass = iota // 7800/8800 series and anything unrecognized
	Class79xx
)

// ClassFromModelName maps the X-CiscoIPPhoneModelName header value to a
// device class. 7900 series models report names like "CP-7961G".
func ClassFromModelName(model string) DeviceClass {
	if strings.HasPrefix(model, "CP-79") {
		return Class79xx
	}
	return Class8800
}

// Limits are the per-device-class menu constraints.
type Limits struct {
	MaxItems   int // menu/directory items per screen
	MaxNameLen int // display name and title length
}

// LimitsFor returns the constraints for one device class.
func LimitsFor(class DeviceClass) Limits {
	if class == Class79xx {
		return Limits{MaxItems: 32, MaxNameLen: 64}
	}
	return Limits{MaxItems: 32, MaxNameLen: 128}
}

// truncationMarker signals that a label was cut to fit the device.
const truncationMarker = "..."

// Truncate clamps s to max runes, replacing the tail with an explicit
// marker when anything was cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(truncationMarker) {
		return string(runes[:max])
	}
	return string(runes[:max-len(truncationMarker)]) + truncationMarker
}

// softkey roles with fixed per-class positions.
//
// 7900 series: Exit=3, Select=1, Update=2, Next=2, Previous=4
// 7800/8800:   Exit=1, Select=2, Update=3, Next=3, Previous=4
type Role string

const (
	RoleExit     Role = "exit"
	RoleSelect   Role = "select"
	RoleUpdate   Role = "update"
	RoleNext     Role = "next"
	RolePrevious Role = "previous"
)

func position(class DeviceClass, r Role) int {
	if class == Class79xx {
		switch r {
		case RoleExit:
			return 3
		case RoleSelect:
			return 1
		case RoleUpdate, RoleNext:
			return 2
		case RolePrevious:
			return 4
		}
		return 1
	}
	switch r {
	case RoleExit:
		return 1
	case RoleSelect:
		return 2
	case RoleUpdate, RoleNext:
		return 3
	case RolePrevious:
		return 4
	}
	return 1
}
