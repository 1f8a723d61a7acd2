// Package wstest provides a lazily created, reference-counted shared
// client for test harnesses that spin up many short-lived fixtures.
//
// Instead of ambient process-wide state, callers hold an explicit handle:
// Acquire creates the underlying client on first use and bumps the
// reference count, Release drops it. When the last reference is released
// the client is not closed immediately but by an idle-timeout sweep, so a
// quick acquire/release churn keeps reusing the same connection pool.
package wstest

import (
	"fmt"
	"sync"
	"time"

	"github.com/avlberg/wsclient/ws"
)

// Factory creates the shared client on first acquisition.
type Factory func() (*ws.Client, error)

// Pool owns one shared client and its idle-sweep lifecycle.
type Pool struct {
	factory     Factory
	idleTimeout time.Duration

	mu     sync.Mutex
	client *ws.Client
	refs   int
	sweep  *time.Timer
	closed bool
}

// Handle is one reference to the shared client. Release exactly once;
// extra releases are no-ops.
type Handle struct {
	pool *Pool
	once sync.Once
}

// NewPool creates a pool that closes the shared client after it has been
// unreferenced for idleTimeout.
func NewPool(idleTimeout time.Duration, factory Factory) *Pool {
	return &Pool{factory: factory, idleTimeout: idleTimeout}
}

// Acquire returns a handle on the shared client, creating it if needed.
// Acquiring while an idle sweep is pending cancels the sweep.
func (p *Pool) Acquire() (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("pool is closed")
	}
	if p.sweep != nil {
		p.sweep.Stop()
		p.sweep = nil
	}
	if p.client == nil {
		client, err := p.factory()
		if err != nil {
			return nil, fmt.Errorf("creating shared client: %w", err)
		}
		p.client = client
	}
	p.refs++
	return &Handle{pool: p}, nil
}

// Client returns the shared client. Only valid until Release.
func (h *Handle) Client() *ws.Client {
	h.pool.mu.Lock()
	defer h.pool.mu.Unlock()
	return h.pool.client
}

// Release drops this reference. When it was the last one, the idle sweep
// is armed; the client closes when the timer fires without a new Acquire.
func (h *Handle) Release() {
	h.once.Do(func() {
		p := h.pool
		p.mu.Lock()
		defer p.mu.Unlock()

		p.refs--
		if p.refs > 0 || p.client == nil {
			return
		}
		p.sweep = time.AfterFunc(p.idleTimeout, p.sweepIdle)
	})
}

func (p *Pool) sweepIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A concurrent Acquire may have won the race with the timer.
	if p.refs > 0 || p.client == nil {
		return
	}
	p.client.Close()
	p.client = nil
	p.sweep = nil
}

// Close shuts the pool down immediately, regardless of references.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.sweep != nil {
		p.sweep.Stop()
		p.sweep = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// Idle reports whether the shared client is currently torn down.
func (p *Pool) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client == nil
}
