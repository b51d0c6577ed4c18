package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/repository"
	"github.com/jacquetc/qleany-sub001/internal/store"
	"github.com/jacquetc/qleany-sub001/internal/testutil"
	"github.com/jacquetc/qleany-sub001/internal/undo"
	"github.com/jacquetc/qleany-sub001/internal/uow"
	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// expectedErrors maps the error names a step may expect to their matchers.
var expectedErrors = map[string]func(error) bool{
	"not_found":       func(err error) bool { return errors.Is(err, repository.ErrNotFound) },
	"no_workspace":    func(err error) bool { return errors.Is(err, manifest.ErrNoWorkspace) },
	"invariant":       func(err error) bool { return errors.Is(err, usecase.ErrInvariantViolated) },
	"empty_selection": func(err error) bool { return errors.Is(err, generator.ErrEmptySelection) },
	"nothing_to_undo": func(err error) bool { return errors.Is(err, undo.ErrNothingToUndo) },
	"nothing_to_redo": func(err error) bool { return errors.Is(err, undo.ErrNothingToRedo) },
	"invalid_selection": func(err error) bool {
		return errors.Is(err, errInvalidSelection)
	},
	"invalid": func(err error) bool {
		var verrs manifest.ValidationErrors
		return errors.As(err, &verrs)
	},
}

var errInvalidSelection = errors.New("invalid selection")

// Harness runs the steps of one scenario.
type Harness struct {
	svc      *usecase.Service
	hub      *event.Hub
	manifest string
	outDir   string
	// generated is the output count of the last successful generate step.
	generated int
}

// Run executes a scenario against a fresh store and returns its result.
// The returned error reports a broken environment; step and assertion
// failures are recorded in the result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "qleany-scenario-")
	if err != nil {
		return nil, fmt.Errorf("create scenario directory: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "qleany.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	hub := event.NewHub()
	defer hub.Stop()

	clock := testutil.NewDeterministicClock()
	svc := usecase.New(uow.NewFactory(st, hub, zap.NewNop()), usecase.WithClock(clock.Now))
	defer svc.Operations().Shutdown()

	data, err := os.ReadFile(scenario.Manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	manifestPath := filepath.Join(dir, "qleany.yaml")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to copy manifest: %w", err)
	}

	if _, err := svc.InitializeApp(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	h := &Harness{
		svc:      svc,
		hub:      hub,
		manifest: manifestPath,
		outDir:   filepath.Join(dir, "out"),
	}
	h.drain()

	result := NewResult()
	for i, step := range scenario.Flow {
		err := h.execute(ctx, step)
		result.Trace = append(result.Trace, h.record(i)...)
		h.check(i, step, err, result)
	}

	state, err := h.state(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read final state: %w", err)
	}
	result.State = *state

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// drain discards the events published so far.
func (h *Harness) drain() {
	h.hub.Flush()
	h.hub.Take()
}

// record returns the events published by step.
func (h *Harness) record(step int) []TraceEvent {
	h.hub.Flush()
	events := h.hub.Take()
	out := make([]TraceEvent, len(events))
	for i, e := range events {
		out[i] = newTraceEvent(step, e)
	}
	return out
}

// check compares the outcome of step with its expect clause.
func (h *Harness) check(index int, step Step, err error, result *Result) {
	switch {
	case step.Expect == nil && err != nil:
		result.AddError(fmt.Sprintf("flow[%d] %s: %v", index, step.Do, err))
	case step.Expect != nil && err == nil:
		result.AddError(fmt.Sprintf("flow[%d] %s: expected error %s, got success", index, step.Do, step.Expect.Error))
	case step.Expect != nil:
		if match := expectedErrors[step.Expect.Error]; match == nil || !match(err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected error %s, got %v", index, step.Do, step.Expect.Error, err))
		}
	}
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch step.Do {
	case OpLoad:
		_, err := h.svc.LoadManifest(ctx, h.manifest)
		return err
	case OpSave:
		_, err := h.svc.SaveManifest(ctx, "")
		return err
	case OpClose:
		return h.svc.CloseManifest(ctx)
	case OpCreateEntity:
		return h.createEntity(ctx, step.Name)
	case OpRenameEntity:
		e, err := h.entity(ctx, step.Name)
		if err != nil {
			return err
		}
		renamed := *e
		renamed.Name = step.To
		_, err = usecase.Access[*model.Entity](h.svc).Update(ctx, &renamed)
		return err
	case OpRemoveEntity:
		e, err := h.entity(ctx, step.Name)
		if err != nil {
			return err
		}
		return usecase.Access[*model.Entity](h.svc).Remove(ctx, e.ID)
	case OpUndo:
		return h.svc.Undo(ctx)
	case OpRedo:
		return h.svc.Redo(ctx)
	case OpFill:
		_, err := h.svc.FillFiles(ctx, h.outDir)
		return err
	case OpGenerate:
		return h.generate(ctx, step)
	}
	return fmt.Errorf("unknown operation %q", step.Do)
}

// createEntity creates an entity and appends it to the workspace as one
// undoable command.
func (h *Harness) createEntity(ctx context.Context, name string) (err error) {
	ws, err := h.svc.Workspace(ctx)
	if err != nil {
		return err
	}

	history := h.svc.UndoManager()
	history.BeginComposite()
	defer func() {
		if endErr := history.EndComposite(ctx); err == nil {
			err = endErr
		}
	}()

	e, err := usecase.Access[*model.Entity](h.svc).Create(ctx, &model.Entity{Name: name})
	if err != nil {
		return err
	}
	ids := make([]model.EntityID, 0, len(ws.Entities)+1)
	for _, existing := range ws.Entities {
		ids = append(ids, existing.ID)
	}
	ids = append(ids, e.ID)
	return usecase.Access[*model.Workspace](h.svc).SetRelationship(ctx, ws.ID, "entities", ids)
}

func (h *Harness) entity(ctx context.Context, name string) (*model.Entity, error) {
	ws, err := h.svc.Workspace(ctx)
	if err != nil {
		return nil, err
	}
	e := ws.EntityNamed(name)
	if e == nil {
		return nil, fmt.Errorf("entity %q: %w", name, repository.ErrNotFound)
	}
	return e, nil
}

func (h *Harness) generate(ctx context.Context, step Step) error {
	sel, err := generator.ParseSelection(step.Select...)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidSelection, err)
	}
	res, err := h.svc.Generate(ctx, usecase.GenerateRequest{
		Root:      h.outDir,
		Selection: sel,
		DryRun:    step.DryRun,
	})
	if err != nil {
		return err
	}
	h.generated = len(res.Outputs)
	return nil
}

// state reads the workspace after the flow.
func (h *Harness) state(ctx context.Context) (*State, error) {
	history := h.svc.UndoManager()
	undoDepth, redoDepth := history.Len(history.ActiveStack())
	st := &State{
		Entities:  []string{},
		Features:  []string{},
		Generated: h.generated,
		Undo:      undoDepth,
		Redo:      redoDepth,
	}

	ws, err := h.svc.Workspace(ctx)
	if errors.Is(err, manifest.ErrNoWorkspace) {
		return st, nil
	}
	if err != nil {
		return nil, err
	}
	st.Loaded = true
	for _, e := range ws.Entities {
		st.Entities = append(st.Entities, e.Name)
	}
	for _, f := range ws.Features {
		st.Features = append(st.Features, f.Name)
	}
	st.Files = len(ws.Files)
	return st, nil
}
