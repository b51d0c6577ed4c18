// Package longop runs operations that span many steps on a background
// goroutine, keyed by an opaque id, with progress polling and cooperative
// cancellation.
package longop
