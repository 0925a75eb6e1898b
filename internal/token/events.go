package token

import (
	"context"
	"sync"

	"evm-token-lab/internal/domain"
)

// EventSink receives events emitted by the pipeline and its collaborator
// contracts. Sinks must not fail: event delivery is observability, never a
// reason to abort a transfer.
type EventSink interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Collector is an in-memory EventSink that retains everything emitted.
type Collector struct {
	mu     sync.Mutex
	events []domain.Event
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit implements EventSink.
func (c *Collector) Emit(_ context.Context, ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a snapshot of all collected events.
func (c *Collector) Events() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Event, len(c.events))
	copy(out, c.events)
	return out
}

// ByKind returns collected events of one kind, in emission order.
func (c *Collector) ByKind(kind string) []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.Event
	for _, ev := range c.events {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

var _ EventSink = (*Collector)(nil)

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, ev domain.Event)

// Emit implements EventSink.
func (f SinkFunc) Emit(ctx context.Context, ev domain.Event) { f(ctx, ev) }

// MultiSink fans one emission out to several sinks.
type MultiSink []EventSink

// Emit implements EventSink.
func (m MultiSink) Emit(ctx context.Context, ev domain.Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}
