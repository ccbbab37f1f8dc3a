package ami

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Config holds the manager endpoint and credentials.
type Config struct {
	Address       string
	Username      string
	Secret        string
	DialTimeout   time.Duration
	ActionTimeout time.Duration
}

func (c Config) dialTimeout() time.Duration {
	if c.DialTimeout > 0 {
		return c.DialTimeout
	}
	return 5 * time.Second
}

func (c Config) actionTimeout() time.Duration {
	if c.ActionTimeout > 0 {
		return c.ActionTimeout
	}
	return 5 * time.Second
}

// Client owns a single authenticated manager connection. Commands run
// strictly one at a time per connection: the protocol does not reliably
// tag every event with the action that produced it, so correlation relies
// on temporal exclusivity rather than optimistic tag matching.
//
// Any I/O failure, timeout, or protocol violation closes the client for
// good; subsequent calls fail fast with ErrConnection. Reconnection
// policy belongs to the caller (see Pool).
type Client struct {
	cfg    Config
	logger *slog.Logger

	conn net.Conn
	dec  *Decoder

	mu        sync.Mutex // serializes actions on the connection
	closed    atomic.Bool
	closeOnce sync.Once

	banner string
}

// Connect dials the manager, consumes the protocol banner, and logs in.
// A rejected login returns an error wrapping ErrAuth; a login that never
// answers within the action budget wraps ErrTimeout.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	dialer := net.Dialer{Timeout: cfg.dialTimeout()}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		managerConnectsTotal.WithLabelValues("dial_error").Inc()
		return nil, fmt.Errorf("dial %s: %w: %v", cfg.Address, ErrConnection, err)
	}

	br := bufio.NewReaderSize(conn, 4096)
	c := &Client{
		cfg:    cfg,
		logger: logger.With("component", "ami"),
		conn:   conn,
		dec:    NewDecoder(br),
	}

	// The manager greets with a single non-frame line, e.g.
	// "Asterisk Call Manager/5.0.4".
	_ = conn.SetReadDeadline(time.Now().Add(cfg.actionTimeout()))
	banner, err := br.ReadString('\n')
	if err != nil {
		conn.Close()
		managerConnectsTotal.WithLabelValues("banner_error").Inc()
		return nil, fmt.Errorf("read banner: %w: %v", ErrConnection, err)
	}
	c.banner = strings.TrimSpace(banner)

	if err := c.login(ctx); err != nil {
		c.fail()
		managerConnectsTotal.WithLabelValues("login_error").Inc()
		return nil, err
	}

	managerConnectsTotal.WithLabelValues("ok").Inc()
	c.logger.DebugContext(ctx, "manager session established", "address", cfg.Address, "banner", c.banner)
	return c, nil
}

// Banner returns the greeting line sent by the manager on connect.
func (c *Client) Banner() string { return c.banner }

// Closed reports whether the client can no longer be used.
func (c *Client) Closed() bool { return c.closed.Load() }

func (c *Client) login(ctx context.Context) error {
	resp, err := c.Execute(ctx, "Login", map[string]string{
		"Username": c.cfg.Username,
		"Secret":   c.cfg.Secret,
	})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("login as %q: %w: %s", c.cfg.Username, ErrAuth, resp.Message)
	}
	return nil
}

// Execute sends a single-reply action and returns its response. The
// response is matched by correlation identifier; a reply carrying a
// foreign identifier is a protocol violation and closes the connection.
func (c *Client) Execute(ctx context.Context, action string, fields map[string]string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	resp, err := c.execute(ctx, action, fields)
	observeAction(action, start, err)
	return resp, err
}

func (c *Client) execute(ctx context.Context, action string, fields map[string]string) (*Response, error) {
	actionID, err := c.send(ctx, action, fields)
	if err != nil {
		return nil, err
	}

	stop := c.watch(ctx)
	defer stop()

	for {
		frame, err := c.readFrame(ctx, action)
		if err != nil {
			return nil, err
		}
		if frame.IsResponse() {
			if got := frame.ActionID(); got != actionID {
				c.fail()
				managerProtocolErrors.Inc()
				return nil, fmt.Errorf("%s: response for action %q while waiting on %q: %w", action, got, actionID, ErrProtocol)
			}
			return &Response{
				Success: strings.EqualFold(frame.Get("Response"), "Success"),
				Message: frame.Get("Message"),
				Fields:  frame,
			}, nil
		}
		if frame.IsEvent() {
			if id := frame.ActionID(); id != "" && id != actionID {
				c.fail()
				managerProtocolErrors.Inc()
				return nil, fmt.Errorf("%s: stale event %q for action %q: %w", action, frame.EventName(), id, ErrProtocol)
			}
			// Unsolicited broadcast (reloads, channel state). Not ours.
			c.logger.DebugContext(ctx, "discarding unsolicited event", "event", frame.EventName(), "action", action)
			continue
		}
		c.fail()
		managerProtocolErrors.Inc()
		return nil, fmt.Errorf("%s: frame is neither response nor event: %w", action, ErrProtocol)
	}
}

// ExecuteList sends a list-producing action and collects its events, in
// arrival order, until the completion marker event.
func (c *Client) ExecuteList(ctx context.Context, action string, fields map[string]string) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	events, err := c.executeList(ctx, action, fields)
	observeAction(action, start, err)
	return events, err
}

func (c *Client) executeList(ctx context.Context, action string, fields map[string]string) ([]Event, error) {
	actionID, err := c.send(ctx, action, fields)
	if err != nil {
		return nil, err
	}

	stop := c.watch(ctx)
	defer stop()

	acked := false
	var events []Event
	for {
		frame, err := c.readFrame(ctx, action)
		if err != nil {
			return nil, err
		}
		switch {
		case frame.IsResponse():
			if got := frame.ActionID(); got != actionID {
				c.fail()
				managerProtocolErrors.Inc()
				return nil, fmt.Errorf("%s: response for action %q while waiting on %q: %w", action, got, actionID, ErrProtocol)
			}
			if !strings.EqualFold(frame.Get("Response"), "Success") {
				return nil, fmt.Errorf("action %s rejected: %s", action, frame.Get("Message"))
			}
			acked = true
		case frame.IsEvent():
			if id := frame.ActionID(); id != "" && id != actionID {
				c.fail()
				managerProtocolErrors.Inc()
				return nil, fmt.Errorf("%s: stale event %q for action %q: %w", action, frame.EventName(), id, ErrProtocol)
			}
			if !acked {
				// Broadcast that raced ahead of our acknowledgement.
				c.logger.DebugContext(ctx, "discarding unsolicited event", "event", frame.EventName(), "action", action)
				continue
			}
			ev := Event{Name: frame.EventName(), Fields: frame}
			if isListComplete(ev) {
				return events, nil
			}
			events = append(events, ev)
		default:
			c.fail()
			managerProtocolErrors.Inc()
			return nil, fmt.Errorf("%s: frame is neither response nor event: %w", action, ErrProtocol)
		}
	}
}

// send encodes and writes the command, returning its correlation
// identifier.
func (c *Client) send(ctx context.Context, action string, fields map[string]string) (string, error) {
	if c.closed.Load() {
		return "", fmt.Errorf("execute %s: %w", action, ErrConnection)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("execute %s: %w", action, err)
	}

	cmd := Command{
		Action:   action,
		ActionID: uuid.NewString(),
		Fields:   fields,
	}

	_ = c.conn.SetWriteDeadline(c.deadline(ctx))
	if _, err := c.conn.Write(cmd.Encode()); err != nil {
		return "", c.mapIOError(ctx, action, err)
	}
	return cmd.ActionID, nil
}

func (c *Client) readFrame(ctx context.Context, action string) (Frame, error) {
	_ = c.conn.SetReadDeadline(c.deadline(ctx))
	frame, err := c.dec.Next()
	if err != nil {
		if errors.Is(err, ErrProtocol) {
			c.fail()
			managerProtocolErrors.Inc()
			c.logger.ErrorContext(ctx, "protocol violation on manager connection", "action", action, "error", err)
			return Frame{}, fmt.Errorf("%s: %w", action, err)
		}
		return Frame{}, c.mapIOError(ctx, action, err)
	}
	return frame, nil
}

// deadline combines the configured action budget with any earlier
// context deadline. The budget is always finite.
func (c *Client) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.cfg.actionTimeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		d = ctxDeadline
	}
	return d
}

// watch closes the connection if ctx is canceled mid-action, so a pooled
// connection can never be reused with stale, unread frames on the wire.
func (c *Client) watch(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.fail()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// mapIOError classifies a transport failure, closing the client either
// way: a half-finished exchange can never be resumed safely.
func (c *Client) mapIOError(ctx context.Context, action string, err error) error {
	c.fail()
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		if ctx.Err() == context.Canceled {
			return fmt.Errorf("%s: %w", action, context.Canceled)
		}
		return fmt.Errorf("%s: no reply within budget: %w", action, ErrTimeout)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s: no reply within budget: %w", action, ErrTimeout)
		}
		return fmt.Errorf("%s: %w", action, ctxErr)
	}
	return fmt.Errorf("%s: %w: %v", action, ErrConnection, err)
}

// fail marks the client unusable and tears down the transport.
func (c *Client) fail() {
	if c.closed.CompareAndSwap(false, true) {
		c.conn.Close()
	}
}

// Close sends a best-effort Logoff without waiting for its reply and
// releases the transport. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if !c.closed.Load() {
			cmd := Command{Action: "Logoff", ActionID: uuid.NewString()}
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			_, _ = c.conn.Write(cmd.Encode())
		}
		c.closed.Store(true)
		c.conn.Close()
	})
}
