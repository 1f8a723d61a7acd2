package ws

import (
	"context"
	"sync"
)

// ResponseFuture is a single-assignment result of an executed request.
// It settles exactly once, with either an adapted response or the
// engine's error unmodified; never both, never neither (barring an engine
// that itself never completes).
type ResponseFuture struct {
	done chan struct{}
	once sync.Once

	resp *Response
	err  error
}

func newResponseFuture() *ResponseFuture {
	return &ResponseFuture{done: make(chan struct{})}
}

func failedFuture(err error) *ResponseFuture {
	f := newResponseFuture()
	f.fail(err)
	return f
}

func (f *ResponseFuture) complete(resp *Response) {
	f.once.Do(func() {
		f.resp = resp
		close(f.done)
	})
}

func (f *ResponseFuture) fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future settles.
func (f *ResponseFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is cancelled. Cancellation
// abandons the wait, not the request; the future may still settle later.
func (f *ResponseFuture) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the settled outcome. It must only be called after Done
// is closed; before that both values are zero.
func (f *ResponseFuture) Result() (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	default:
		return nil, nil
	}
}
