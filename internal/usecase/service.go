package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/longop"
	"github.com/jacquetc/qleany-sub001/internal/undo"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// Service runs use cases against one store.
type Service struct {
	factory   *uow.Factory
	undo      *undo.Manager
	ops       *longop.Manager
	formatter *generator.Formatter
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithUndoManager records write use cases in m.
func WithUndoManager(m *undo.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.undo = m
		}
	}
}

// WithOperations runs long operations on m.
func WithOperations(m *longop.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.ops = m
		}
	}
}

// WithFormatter formats generated files with f.
func WithFormatter(f *generator.Formatter) Option {
	return func(s *Service) {
		s.formatter = f
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used for file timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a service over f. Without options it keeps a private undo
// manager and long-operation manager and does not format output.
func New(f *uow.Factory, opts ...Option) *Service {
	s := &Service{
		factory: f,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.undo == nil {
		s.undo = undo.NewManager(undo.WithPublisher(f.Publisher()), undo.WithLogger(s.logger))
	}
	if s.ops == nil {
		s.ops = longop.NewManager(longop.WithPublisher(f.Publisher()), longop.WithLogger(s.logger))
	}
	s.logger = s.logger.Named("usecase")
	return s
}

// Factory returns the unit of work factory.
func (s *Service) Factory() *uow.Factory {
	return s.factory
}

// UndoManager returns the undo history.
func (s *Service) UndoManager() *undo.Manager {
	return s.undo
}

// Operations returns the long-operation manager.
func (s *Service) Operations() *longop.Manager {
	return s.ops
}

// Undo undoes the last command of the active stack.
func (s *Service) Undo(ctx context.Context) error {
	return s.undo.Undo(ctx)
}

// Redo redoes the last undone command of the active stack.
func (s *Service) Redo(ctx context.Context) error {
	return s.undo.Redo(ctx)
}

func (s *Service) publish(e event.Event) {
	if pub := s.factory.Publisher(); pub != nil {
		pub.Publish(e)
	}
}
