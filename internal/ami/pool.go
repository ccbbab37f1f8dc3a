package ami

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Querier is the slice of the client used by request handlers. *Client
// implements it; tests substitute mocks.
type Querier interface {
	VoicemailUsers(ctx context.Context) ([]VoicemailUser, error)
	ParkedCalls(ctx context.Context) ([]ParkedCall, error)
	SIPPeers(ctx context.Context) ([]PeerEntry, error)
	ShowPeer(ctx context.Context, peer string) (*PeerDetail, error)
}

var _ Querier = (*Client)(nil)

// Runner grants exclusive use of one manager connection for the duration
// of fn. App services depend on this instead of a concrete pool.
type Runner interface {
	Do(ctx context.Context, fn func(Querier) error) error
}

// Pool hands out manager connections with mutual exclusion, never
// sharing: the protocol correlates a command's event stream to the
// command by temporal exclusivity, so one task owns one connection for a
// whole operation. Healthy connections are reused; a connection that
// failed mid-operation (timeout, transport, protocol, cancellation) is
// already closed by the client and simply dropped here.
type Pool struct {
	cfg    Config
	logger *slog.Logger

	slots chan struct{} // capacity tokens
	mu    sync.Mutex
	idle  []*Client
	done  bool
}

// NewPool creates a pool of at most size concurrent connections.
// Connections are dialed lazily on first use.
func NewPool(cfg Config, size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, size),
	}
}

// Do runs fn with exclusive use of one authenticated connection, waiting
// for a free slot if the pool is at capacity.
func (p *Pool) Do(ctx context.Context, fn func(Querier) error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire manager connection: %w", ctx.Err())
	}
	defer func() { <-p.slots }()

	client, err := p.checkout(ctx)
	if err != nil {
		return err
	}

	err = fn(client)
	p.checkin(client)
	return err
}

// checkout reuses an idle connection or dials a fresh one.
func (p *Pool) checkout(ctx context.Context) (*Client, error) {
	for {
		p.mu.Lock()
		if p.done {
			p.mu.Unlock()
			return nil, fmt.Errorf("pool closed: %w", ErrConnection)
		}
		var client *Client
		if n := len(p.idle); n > 0 {
			client = p.idle[n-1]
			p.idle = p.idle[:n-1]
		}
		p.mu.Unlock()

		if client == nil {
			managerPoolDials.Inc()
			return Connect(ctx, p.cfg, p.logger)
		}
		if client.Closed() {
			// Died while idle; fall through and try the next one.
			continue
		}
		return client, nil
	}
}

func (p *Pool) checkin(client *Client) {
	if client.Closed() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		client.Close()
		return
	}
	p.idle = append(p.idle, client)
}

// Close logs off and releases all idle connections. Connections checked
// out at the time of the call close themselves when their operation ends.
func (p *Pool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.done = true
	p.mu.Unlock()
	for _, c := range idle {
		c.Close()
	}
}
