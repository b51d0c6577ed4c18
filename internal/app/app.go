// Package app wires the process-wide pieces of qleany: configuration,
// logger, store, event hub and dispatcher, undo history, long operations
// and the use-case service.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/config"
	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/longop"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/undo"
	"github.com/jacquetc/qleany-sub001/internal/uow"
	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// App is the application context. It owns the single write session of the
// process.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Store      *store.Store
	Hub        *event.Hub
	Dispatcher *event.Dispatcher
	Service    *usecase.Service

	stopDispatch context.CancelFunc
	dispatchDone chan struct{}
}

// Option configures New.
type Option func(*options)

type options struct {
	runner   generator.Runner
	lookPath func(string) (string, error)
}

// WithFormatterRunner replaces the process runner of the formatter.
func WithFormatterRunner(run generator.Runner, lookPath func(string) (string, error)) Option {
	return func(o *options) {
		o.runner = run
		o.lookPath = lookPath
	}
}

// New opens the store named by cfg, starts the event dispatcher and
// initialises the Root. Close releases everything.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(cfg.DatabasePath, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.DatabasePath, err)
	}

	hub := event.NewHub(event.WithLogger(logger.Named("event")))
	dispatcher := event.NewDispatcher(hub, cfg.EventPollInterval)
	factory := uow.NewFactory(st, hub, logger)

	formatterOpts := []generator.FormatterOption{
		generator.WithClangFormat(cfg.Formatter.ClangFormat),
		generator.WithRustfmt(cfg.Formatter.Rustfmt),
		generator.WithClangStyle(cfg.Formatter.ClangStyle),
		generator.WithChunkSize(cfg.Formatter.ChunkSize),
		generator.WithFormatterLogger(logger),
	}
	if o.runner != nil {
		formatterOpts = append(formatterOpts, generator.WithRunner(o.runner))
	}
	if o.lookPath != nil {
		formatterOpts = append(formatterOpts, generator.WithLookPath(o.lookPath))
	}

	svc := usecase.New(factory,
		usecase.WithUndoManager(undo.NewManager(
			undo.WithLimit(cfg.UndoLimit),
			undo.WithPublisher(hub),
			undo.WithLogger(logger),
		)),
		usecase.WithOperations(longop.NewManager(
			longop.WithPublisher(hub),
			longop.WithLogger(logger),
		)),
		usecase.WithFormatter(generator.NewFormatter(formatterOpts...)),
		usecase.WithLogger(logger),
	)

	dispatchCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	a := &App{
		Config:       cfg,
		Logger:       logger,
		Store:        st,
		Hub:          hub,
		Dispatcher:   dispatcher,
		Service:      svc,
		stopDispatch: stop,
		dispatchDone: make(chan struct{}),
	}
	go func() {
		defer close(a.dispatchDone)
		_ = dispatcher.Run(dispatchCtx)
	}()

	if _, err := svc.InitializeApp(ctx); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("application ready", zap.String("db", cfg.DatabasePath), zap.Bool("ephemeral", cfg.Ephemeral))
	return a, nil
}

// Close stops the long operations and the dispatcher, delivers the last
// events and closes the store. An ephemeral database is removed.
func (a *App) Close() error {
	a.Service.Operations().Shutdown()
	a.Service.UndoManager().ClearAll(context.Background())

	a.Hub.Stop()
	a.stopDispatch()
	<-a.dispatchDone

	err := a.Store.Close()
	if a.Config.Ephemeral {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if rmErr := os.Remove(a.Config.DatabasePath + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, rmErr)
			}
		}
	}
	return err
}
