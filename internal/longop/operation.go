package longop

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Status is the state of an operation.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the operation has stopped.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// Progress is the last progress report of an operation.
type Progress struct {
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
}

// Reporter is handed to a running operation.
type Reporter interface {
	// Report records progress; percentage is clamped to [0,100].
	Report(percentage int, message string)
	// Cancelled reports whether Cancel was requested.
	Cancelled() bool
}

// Func is the body of an operation. Once cancellation was requested, or
// when it returns ErrCancelled, the operation ends as StatusCancelled.
type Func func(ctx context.Context, r Reporter) (any, error)

// ErrCancelled may be returned by a Func that stopped early.
var ErrCancelled = errors.New("operation cancelled")

// Snapshot is an immutable view of an operation.
type Snapshot struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	Progress    Progress   `json:"progress"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type operation struct {
	id     string
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.RWMutex
	status      Status
	progress    Progress
	result      any
	err         error
	cancelled   bool
	startedAt   time.Time
	completedAt *time.Time

	onProgress func(Progress)
}

func (o *operation) Report(percentage int, message string) {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	p := Progress{Percentage: percentage, Message: message}

	o.mu.Lock()
	o.progress = p
	o.mu.Unlock()

	if o.onProgress != nil {
		o.onProgress(p)
	}
}

func (o *operation) Cancelled() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cancelled
}

func (o *operation) requestCancel() {
	o.mu.Lock()
	o.cancelled = true
	o.mu.Unlock()
	o.cancel()
}

func (o *operation) finish(result any, err error, now time.Time) Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.cancelled || errors.Is(err, ErrCancelled):
		o.status = StatusCancelled
		o.result = result
	case err != nil:
		o.status = StatusFailed
		o.err = err
	default:
		o.status = StatusCompleted
		o.result = result
		o.progress.Percentage = 100
	}
	o.completedAt = &now
	return o.status
}

func (o *operation) snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := Snapshot{
		ID:          o.id,
		Name:        o.name,
		Status:      o.status,
		Progress:    o.progress,
		StartedAt:   o.startedAt,
		CompletedAt: o.completedAt,
	}
	if o.err != nil {
		s.Error = o.err.Error()
	}
	return s
}
