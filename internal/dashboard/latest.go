package dashboard

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a call whose result was discarded because a
// newer call started before it finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Latest makes overlapping calls resolve as "last request wins": starting a
// call cancels the one in flight, and only the most recently started call
// may deliver its result.
type Latest struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// begin cancels any in-flight call and returns the context and sequence
// number for a new one.
func (l *Latest) begin(ctx context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.seq++
	l.cancel = cancel
	return ctx, l.seq
}

// finish reports whether seq is still the newest call and releases its
// context.
func (l *Latest) finish(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.seq {
		return false
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	return true
}

// Cancel aborts the call in flight, if any, and discards its result.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// RunLatest runs fn under l. A call overtaken by a newer one returns
// ErrSuperseded instead of its own result or error.
func RunLatest[T any](ctx context.Context, l *Latest, fn func(context.Context) (T, error)) (T, error) {
	callCtx, seq := l.begin(ctx)
	value, err := fn(callCtx)
	if !l.finish(seq) {
		var zero T
		return zero, ErrSuperseded
	}
	return value, err
}
