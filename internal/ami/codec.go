package ami

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// MaxFrameSize bounds one wire frame. A frame that has not terminated
// within this many bytes is malformed.
const MaxFrameSize = 16 * 1024

// Command is a named manager action plus its fields. Immutable once sent.
type Command struct {
	Action   string
	ActionID string
	Fields   map[string]string
}

// Encode renders the command as CRLF "Key: Value" lines with a blank-line
// frame terminator. Fields are emitted in sorted order so encoding is
// deterministic.
func (c Command) Encode() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Action: %s\r\n", c.Action)
	if c.ActionID != "" {
		fmt.Fprintf(&b, "ActionID: %s\r\n", c.ActionID)
	}
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, c.Fields[k])
	}
	b.WriteString("\r\n")
	return b.Bytes()
}

type pair struct {
	key   string
	value string
}

// Frame is one complete key/value block of the manager wire protocol,
// bounded by a blank line. Key lookup is case-insensitive, matching how
// Asterisk treats manager headers.
type Frame struct {
	pairs []pair
}

// Get returns the value for key, or "" when absent.
func (f Frame) Get(key string) string {
	for _, p := range f.pairs {
		if strings.EqualFold(p.key, key) {
			return p.value
		}
	}
	return ""
}

// Has reports whether key is present.
func (f Frame) Has(key string) bool {
	for _, p := range f.pairs {
		if strings.EqualFold(p.key, key) {
			return true
		}
	}
	return false
}

// Len returns the number of key/value pairs.
func (f Frame) Len() int { return len(f.pairs) }

// IsResponse reports whether the frame is a reply to a command.
func (f Frame) IsResponse() bool { return f.Has("Response") }

// IsEvent reports whether the frame is an unsolicited event.
func (f Frame) IsEvent() bool { return f.Has("Event") }

// EventName returns the event name, or "" for non-event frames.
func (f Frame) EventName() string { return f.Get("Event") }

// ActionID returns the correlation identifier attached by the remote,
// or "" when the frame carries none.
func (f Frame) ActionID() string { return f.Get("ActionID") }

// Extra returns the fields not named in known, preserving unrecognized
// keys for forward compatibility.
func (f Frame) Extra(known ...string) map[string]string {
	extra := make(map[string]string)
	for _, p := range f.pairs {
		recognized := false
		for _, k := range known {
			if strings.EqualFold(p.key, k) {
				recognized = true
				break
			}
		}
		if !recognized {
			extra[p.key] = p.value
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}

// Decoder turns a manager byte stream into frames. It buffers partial
// reads and emits a frame only once its blank-line terminator has
// arrived, so chunk boundaries in the underlying stream are invisible.
type Decoder struct {
	r *bufio.Reader
	// After a malformed frame the decoder skips forward to the next
	// terminator before parsing again, so one bad frame cannot corrupt
	// the ones that follow.
	skipping bool
}

// NewDecoder wraps r. If r is already a *bufio.Reader it is used
// directly, preserving any bytes it has buffered.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, 4096)}
}

// Next blocks until one complete frame is available and returns it.
// io.EOF is returned once the stream ends cleanly between frames.
// Malformed frames yield an error wrapping ErrProtocol; decoding may
// continue afterwards with the next frame.
func (d *Decoder) Next() (Frame, error) {
	if d.skipping {
		if err := d.skipFrame(); err != nil {
			return Frame{}, err
		}
		d.skipping = false
	}

	var f Frame
	size := 0
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" && len(f.pairs) == 0 {
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}
		size += len(line)
		if size > MaxFrameSize {
			d.skipping = true
			return Frame{}, fmt.Errorf("frame exceeds %d bytes without terminator: %w", MaxFrameSize, ErrProtocol)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if len(f.pairs) == 0 {
				// Stray terminator between frames; keep scanning.
				continue
			}
			return f, nil
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			d.skipping = true
			return Frame{}, fmt.Errorf("line %q has no separator: %w", line, ErrProtocol)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			d.skipping = true
			return Frame{}, fmt.Errorf("line %q has empty key: %w", line, ErrProtocol)
		}
		if f.Has(key) {
			d.skipping = true
			return Frame{}, fmt.Errorf("duplicate key %q: %w", key, ErrProtocol)
		}
		f.pairs = append(f.pairs, pair{key: key, value: strings.TrimSpace(value)})
	}
}

// skipFrame consumes input up to and including the next blank line.
func (d *Decoder) skipFrame() error {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			return err
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
	}
}

// Response is a reply to exactly one command, linked by ActionID.
type Response struct {
	Success bool
	Message string
	Fields  Frame
}

// Event is an unsolicited frame tagged with an event name.
type Event struct {
	Name   string
	Fields Frame
}

// isListComplete reports whether ev terminates a list-producing action.
// Asterisk marks the terminator either with "EventList: Complete" or an
// event name suffixed with "Complete" (e.g. ParkedCallsComplete).
func isListComplete(ev Event) bool {
	if strings.EqualFold(ev.Fields.Get("EventList"), "Complete") {
		return true
	}
	return strings.HasSuffix(ev.Name, "Complete")
}
