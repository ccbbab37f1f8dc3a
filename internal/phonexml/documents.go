// Package phonexml renders domain results into the declarative menu
// vocabulary of Cisco IP phones. Rendering is a pure function of its
// inputs: no I/O, and every document goes through encoding/xml so the
// output is well-formed no matter what upstream data contains.
package phonexml

import (
	"encoding/xml"
	"fmt"
	"net/url"
)

// ErrTooManyItems is returned instead of rendering a document that
// exceeds the device's per-screen item limit. Callers paginate; the
// renderer never drops items silently.
var ErrTooManyItems = fmt.Errorf("too many items for one screen")

const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// SoftKeyItem binds a named action to a phone soft key position.
type SoftKeyItem struct {
	Name     string `xml:"Name"`
	Position int    `xml:"Position"`
	URL      string `xml:"URL"`
}

// MenuItem is one selectable row of a menu document.
type MenuItem struct {
	Name string `xml:"Name"`
	URL  string `xml:"URL"`
}

// Menu is a CiscoIPPhoneMenu document.
type Menu struct {
	XMLName  xml.Name      `xml:"CiscoIPPhoneMenu"`
	Title    string        `xml:"Title"`
	Items    []MenuItem    `xml:"MenuItem"`
	Prompt   string        `xml:"Prompt,omitempty"`
	SoftKeys []SoftKeyItem `xml:"SoftKeyItem"`
}

// DirectoryEntryItem is one dialable row of a directory document. The
// telephone value is URL-escaped by the renderers.
type DirectoryEntryItem struct {
	Name      string `xml:"Name"`
	Telephone string `xml:"Telephone"`
}

// Directory is a CiscoIPPhoneDirectory document.
type Directory struct {
	XMLName  xml.Name             `xml:"CiscoIPPhoneDirectory"`
	Title    string               `xml:"Title"`
	Entries  []DirectoryEntryItem `xml:"DirectoryEntry"`
	Prompt   string               `xml:"Prompt,omitempty"`
	SoftKeys []SoftKeyItem        `xml:"SoftKeyItem"`
}

// Text is a CiscoIPPhoneText document.
type Text struct {
	XMLName  xml.Name      `xml:"CiscoIPPhoneText"`
	Title    string        `xml:"Title"`
	Body     string        `xml:"Text"`
	Prompt   string        `xml:"Prompt,omitempty"`
	SoftKeys []SoftKeyItem `xml:"SoftKeyItem"`
}

func marshal(doc any) (string, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal phone document: %w", err)
	}
	return header + string(out) + "\n", nil
}

// DialEntry is one name/number pair handed to the directory renderers.
type DialEntry struct {
	Name   string
	Number string
}

// Nav carries the navigation URLs a rendered page binds to soft keys.
// Empty URLs leave the corresponding key unbound.
type Nav struct {
	ExitURL string
	NextURL string
	PrevURL string
}

// dialKeyName is what the dial soft key is labeled per class.
func dialKeyName(class DeviceClass) string {
	if class == Class79xx {
		return "Dial"
	}
	return "Call"
}

// selectKeyName labels the select soft key on menus.
func selectKeyName(class DeviceClass) string {
	if class == Class79xx {
		return "Select"
	}
	return "View"
}

// RenderDirectoryPage renders one page of directory entries with
// previous/next soft keys driven by the pagination flags.
func RenderDirectoryPage(title string, entries []DialEntry, class DeviceClass, nav Nav) (string, error) {
	limits := LimitsFor(class)
	if len(entries) > limits.MaxItems {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(entries), limits.MaxItems)
	}

	doc := Directory{Title: Truncate(title, limits.MaxNameLen)}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, DirectoryEntryItem{
			Name:      Truncate(e.Name, limits.MaxNameLen),
			Telephone: url.QueryEscape(e.Number),
		})
	}
	if class == Class79xx {
		doc.Prompt = "Select entry"
	}

	if nav.ExitURL != "" {
		doc.SoftKeys = append(doc.SoftKeys, SoftKeyItem{Name: "Exit", Position: position(class, RoleExit), URL: nav.ExitURL})
	}
	doc.SoftKeys = append(doc.SoftKeys, SoftKeyItem{Name: dialKeyName(class), Position: position(class, RoleSelect), URL: "SoftKey:Select"})
	if nav.NextURL != "" {
		doc.SoftKeys = append(doc.SoftKeys, SoftKeyItem{Name: "Next", Position: position(class, RoleNext), URL: nav.NextURL})
	}
	if nav.PrevURL != "" {
		doc.SoftKeys = append(doc.SoftKeys, SoftKeyItem{Name: "Previous", Position: position(class, RolePrevious), URL: nav.PrevURL})
	}
	return marshal(doc)
}

// RenderParkedCalls renders the live call-park slots with an update key
// for refreshing the view.
func RenderParkedCalls(slots []DialEntry, class DeviceClass, exitURL string) (string, error) {
	limits := LimitsFor(class)
	if len(slots) > limits.MaxItems {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(slots), limits.MaxItems)
	}

	doc := Directory{Title: "Parked Calls"}
	for _, s := range slots {
		doc.Entries = append(doc.Entries, DirectoryEntryItem{
			Name:      Truncate(s.Name, limits.MaxNameLen),
			Telephone: url.QueryEscape(s.Number),
		})
	}
	if class == Class79xx {
		doc.Prompt = "Select call"
	}
	doc.SoftKeys = []SoftKeyItem{
		{Name: "Exit", Position: position(class, RoleExit), URL: exitURL},
		{Name: dialKeyName(class), Position: position(class, RoleSelect), URL: "SoftKey:Select"},
		{Name: "Update", Position: position(class, RoleUpdate), URL: "SoftKey:Update"},
	}
	return marshal(doc)
}

// Reason is one quality-report reason choice.
type Reason struct {
	Code string
	Text string
}

// RenderQualityReasons renders the reason selection menu. Each row
// attaches its reason code as a query parameter; Submit posts to
// submitURL.
func RenderQualityReasons(reasons []Reason, class DeviceClass, submitURL string) (string, error) {
	limits := LimitsFor(class)
	if len(reasons) > limits.MaxItems {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(reasons), limits.MaxItems)
	}

	doc := Menu{Title: "Quality Report"}
	for _, r := range reasons {
		doc.Items = append(doc.Items, MenuItem{
			Name: Truncate(r.Text, limits.MaxNameLen),
			URL:  "QueryStringParam:reason=" + url.QueryEscape(r.Code),
		})
	}
	if class == Class79xx {
		doc.Prompt = "Your current options"
	}
	doc.SoftKeys = []SoftKeyItem{
		{Name: "Submit", Position: position(class, RoleSelect), URL: submitURL},
		{Name: "Exit", Position: position(class, RoleExit), URL: "Init:Services"},
	}
	return marshal(doc)
}

// RenderMenu renders a generic menu document.
func RenderMenu(title string, items []MenuItem, class DeviceClass, softKeys []SoftKeyItem) (string, error) {
	limits := LimitsFor(class)
	if len(items) > limits.MaxItems {
		return "", fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), limits.MaxItems)
	}

	doc := Menu{Title: Truncate(title, limits.MaxNameLen)}
	for _, item := range items {
		item.Name = Truncate(item.Name, limits.MaxNameLen)
		doc.Items = append(doc.Items, item)
	}
	if class == Class79xx {
		doc.Prompt = "Your current options"
	}
	doc.SoftKeys = softKeys
	return marshal(doc)
}

// SoftKey builds one soft key with the position its role occupies on the
// given device class.
func SoftKey(name string, r Role, class DeviceClass, urlStr string) SoftKeyItem {
	return SoftKeyItem{Name: name, Position: position(class, r), URL: urlStr}
}

// RenderText renders a plain text prompt document.
func RenderText(title, message string, class DeviceClass, softKeys []SoftKeyItem) (string, error) {
	limits := LimitsFor(class)
	doc := Text{
		Title: Truncate(title, limits.MaxNameLen),
		Body:  message,
	}
	if class == Class79xx {
		doc.Prompt = "Your current options"
	}
	doc.SoftKeys = softKeys
	return marshal(doc)
}
