// Package feed broadcasts contract events to WebSocket subscribers as
// JSON frames. Slow subscribers are dropped rather than back-pressuring
// the emitting transfer.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"evm-token-lab/internal/domain"
	"evm-token-lab/internal/token"
)

const subscriberBuffer = 64

// Frame is the wire format for one broadcast event.
type Frame struct {
	Kind    string       `json:"kind"`
	Payload domain.Event `json:"payload"`
}

// Hub fans contract events out to connected WebSocket clients.
type Hub struct {
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewHub creates an empty Hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[chan []byte]struct{}),
	}
}

var _ token.EventSink = (*Hub)(nil)

// Emit implements token.EventSink. Marshals the event once and enqueues
// it for every subscriber; full subscriber queues are skipped.
func (h *Hub) Emit(_ context.Context, ev domain.Event) {
	data, err := json.Marshal(Frame{Kind: ev.Kind(), Payload: ev})
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("marshal event %s: %v", ev.Kind(), err)
		}
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- data:
		default:
			// Subscriber queue full, frame dropped for this client.
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a WebSocket and streams event frames
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("upgrade websocket: %v", err)
		}
		return
	}

	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		conn.Close()
	}()

	// Reader goroutine: consume and discard client frames so pings are
	// answered and closure is detected.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		}
	}
}
