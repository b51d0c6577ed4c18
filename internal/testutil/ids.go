package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable operation ids shaped like UUIDs.
//
// The same scenario with a fresh SequentialIDs yields the same ids, which
// keeps logs and golden files stable.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", g.seq)
}
