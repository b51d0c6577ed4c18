// Package event carries store mutations to whoever displays them.
//
// Producers Publish events into an unbounded FIFO queue. A consumer
// goroutine moves them into a shared slice; clients either Take that slice
// directly or run a Dispatcher that polls it on a short cadence and invokes
// callbacks registered per Origin.
//
// There is no replay: a subscriber only sees events published after it
// subscribed and before the next Take.
package event
