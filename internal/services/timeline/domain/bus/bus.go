// Package bus is the in-process publish/subscribe channel that notifies
// interested components after timeline writes.
//
// The bus is a value owned by application wiring. Handlers never affect the
// emitter: errors and panics are recovered and logged, and the remaining
// handlers still run. Async handlers run detached from Emit and can be
// drained with Wait.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Kind names a published domain event, e.g. "appointment.completed".
type Kind string

// Event is a notification delivered to handlers.
type Event struct {
	Kind       Kind
	RecordID   string
	Payload    any
	OccurredAt time.Time
}

// Handler reacts to a published event.
type Handler func(ctx context.Context, evt Event) error

type subscription struct {
	id      uint64
	handler Handler
	async   bool
}

// Bus dispatches events to registered handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]subscription
	nextID   uint64
	logger   *slog.Logger
	inflight sync.WaitGroup
	now      func() time.Time
}

// New creates an empty bus. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Kind][]subscription),
		logger:   logger.With("component", "bus"),
		now:      time.Now,
	}
}

// On registers a handler that runs inline during Emit. The returned func
// removes this registration only.
func (b *Bus) On(kind Kind, handler Handler) func() {
	return b.subscribe(kind, handler, false)
}

// OnAsync registers a handler that runs in its own goroutine and is not
// awaited by Emit.
func (b *Bus) OnAsync(kind Kind, handler Handler) func() {
	return b.subscribe(kind, handler, true)
}

func (b *Bus) subscribe(kind Kind, handler Handler, async bool) func() {
	if handler == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, handler: handler, async: async})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[kind]
	for i, sub := range subs {
		if sub.id == id {
			b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[kind]) == 0 {
		delete(b.handlers, kind)
	}
}

// Off removes every handler for kind.
func (b *Bus) Off(kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, kind)
}

// Clear removes every handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Kind][]subscription)
}

// HandlerCount returns the number of handlers registered for kind.
func (b *Bus) HandlerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}

// Emit delivers evt to every handler of its kind in registration order.
// Handlers registered or removed during delivery do not affect this call.
func (b *Bus) Emit(ctx context.Context, evt Event) {
	if ctx == nil {
		ctx = context.Background()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = b.now().UTC()
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[evt.Kind]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.async {
			b.inflight.Add(1)
			go func(handler Handler) {
				defer b.inflight.Done()
				b.invoke(context.WithoutCancel(ctx), handler, evt, true)
			}(sub.handler)
			continue
		}
		b.invoke(ctx, sub.handler, evt, false)
	}
}

// Wait blocks until every async handler started so far has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}

func (b *Bus) invoke(ctx context.Context, handler Handler, evt Event, async bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "bus handler panicked",
				"kind", string(evt.Kind),
				"record_id", evt.RecordID,
				"async", async,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	if err := handler(ctx, evt); err != nil {
		b.logger.WarnContext(ctx, "bus handler failed",
			"kind", string(evt.Kind),
			"record_id", evt.RecordID,
			"async", async,
			"error", err,
		)
	}
}
