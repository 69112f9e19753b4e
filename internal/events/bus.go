package events

import (
	"context"
	"log/slog"
	"sync"
)

// HandlerFunc consumes a single event. Each invocation runs in its own
// goroutine with a context detached from the publisher's, so a failing
// handler can neither abort the operation that published the event nor
// its sibling handlers.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus is an in-process publish/subscribe bus with commit-gated delivery.
// Publish inside a transaction scope buffers the event; the transaction
// runner dispatches the buffer only after COMMIT returns. Publish outside
// any transaction dispatches immediately.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger,
	}
}

// Subscribe registers a handler for the named event type.
func (b *Bus) Subscribe(name string, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish records the event in the transaction buffer carried by ctx, if
// any, and dispatches it right away otherwise.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if buf, ok := bufferFrom(ctx); ok {
		buf.add(e)
		return
	}
	b.Dispatch(ctx, e)
}

// Dispatch hands the events to every registered handler, one goroutine per
// handler invocation. The handler context survives cancellation of ctx:
// delivery after commit must not be cut short by the request that
// triggered it.
func (b *Bus) Dispatch(ctx context.Context, evs ...Event) {
	detached := context.WithoutCancel(ctx)

	for _, e := range evs {
		b.mu.RLock()
		handlers := b.handlers[e.Name()]
		b.mu.RUnlock()

		for _, h := range handlers {
			b.wg.Add(1)
			go func(h HandlerFunc, e Event) {
				defer b.wg.Done()
				defer func() {
					if r := recover(); r != nil {
						b.logger.Error("event handler panicked", "event", e.Name(), "panic", r)
					}
				}()
				if err := h(detached, e); err != nil {
					b.logger.Error("event handler failed", "event", e.Name(), "error", err)
				}
			}(h, e)
		}
	}
}

// Wait blocks until every in-flight handler has returned. Used on shutdown
// and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
