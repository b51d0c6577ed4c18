package event

import (
	"context"
	"sync"
	"time"
)

// DefaultPollInterval is the cadence at which a Dispatcher polls the hub.
const DefaultPollInterval = 50 * time.Millisecond

// Callback receives a dispatched event.
type Callback func(Event)

type subscription struct {
	id     uint64
	origin *Origin
	fn     Callback
}

// Dispatcher polls a Hub and invokes the callbacks registered per Origin.
type Dispatcher struct {
	hub      *Hub
	interval time.Duration

	mu     sync.Mutex
	nextID uint64
	subs   []subscription
}

// NewDispatcher creates a dispatcher over hub. A zero interval selects
// DefaultPollInterval.
func NewDispatcher(hub *Hub, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Dispatcher{hub: hub, interval: interval}
}

// Subscribe registers fn for events whose origin equals origin.
// The returned function removes the subscription.
func (d *Dispatcher) Subscribe(origin Origin, fn Callback) func() {
	return d.add(&origin, fn)
}

// SubscribeAll registers fn for every event.
func (d *Dispatcher) SubscribeAll(fn Callback) func() {
	return d.add(nil, fn)
}

func (d *Dispatcher) add(origin *Origin, fn Callback) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscription{id: id, origin: origin, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// Dispatch takes every pending event from the hub and delivers it.
// It returns the number of events taken.
func (d *Dispatcher) Dispatch() int {
	events := d.hub.Take()
	if len(events) == 0 {
		return 0
	}

	d.mu.Lock()
	subs := make([]subscription, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	for _, e := range events {
		for _, s := range subs {
			if s.origin == nil || *s.origin == e.Origin {
				s.fn(e)
			}
		}
	}
	return len(events)
}

// Run dispatches on every tick until ctx is done or the hub is stopped.
// Remaining events are delivered before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.hub.Flush()
			d.Dispatch()
			return ctx.Err()
		case <-ticker.C:
			d.Dispatch()
			if d.hub.Stopped() {
				return nil
			}
		}
	}
}
