package event

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Publisher accepts events.
type Publisher interface {
	Publish(e Event)
}

// Hub is the process-wide event fan-out.
type Hub struct {
	queue *eventQueue

	// moveMu serialises transfers from the queue to pending so that two
	// movers cannot reorder events.
	moveMu sync.Mutex

	mu      sync.Mutex
	pending []Event

	stopped atomic.Bool
	done    chan struct{}
	logger  *zap.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zap.Logger) HubOption {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub creates a hub and starts its consumer goroutine.
// Stop must be called to release it.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		queue:  newEventQueue(),
		done:   make(chan struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.Named("event")

	go h.consume()
	return h
}

// Publish enqueues e. Events published after Stop are dropped.
func (h *Hub) Publish(e Event) {
	if !h.queue.Enqueue(e) {
		h.logger.Debug("event dropped after stop", zap.Stringer("origin", e.Origin))
	}
}

// Take returns and clears the events moved out of the queue so far.
func (h *Hub) Take() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.pending
	h.pending = nil
	return out
}

// Flush synchronously moves every queued event to the shared slice.
func (h *Hub) Flush() {
	h.move()
}

// Stop ends the consumer goroutine after a final transfer.
// Safe to call more than once.
func (h *Hub) Stop() {
	if h.stopped.CompareAndSwap(false, true) {
		h.queue.Close()
	}
	<-h.done
}

// Stopped reports whether Stop was called.
func (h *Hub) Stopped() bool {
	return h.stopped.Load()
}

func (h *Hub) consume() {
	defer close(h.done)
	for range h.queue.Wait() {
		h.move()
	}
	h.move()
}

func (h *Hub) move() {
	h.moveMu.Lock()
	defer h.moveMu.Unlock()

	for {
		e, ok := h.queue.TryDequeue()
		if !ok {
			return
		}
		h.mu.Lock()
		h.pending = append(h.pending, e)
		h.mu.Unlock()
	}
}
