package events

import (
	"context"
	"sync"
)

type bufferKey struct{}

// Buffer collects events published during one transaction. It is created
// by the transaction runner and dispatched or discarded with the
// transaction's outcome.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// WithBuffer attaches a fresh transaction-scoped event buffer to ctx.
func WithBuffer(ctx context.Context) (context.Context, *Buffer) {
	buf := &Buffer{}
	return context.WithValue(ctx, bufferKey{}, buf), buf
}

func bufferFrom(ctx context.Context) (*Buffer, bool) {
	buf, ok := ctx.Value(bufferKey{}).(*Buffer)
	return buf, ok
}

func (b *Buffer) add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	evs := b.events
	b.events = nil
	return evs
}
