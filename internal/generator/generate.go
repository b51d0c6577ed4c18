package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// SelectionKind tells which files a generation covers.
type SelectionKind string

const (
	SelectAll     SelectionKind = "all"
	SelectFeature SelectionKind = "feature"
	SelectEntity  SelectionKind = "entity"
	SelectGroup   SelectionKind = "group"
	SelectFile    SelectionKind = "file"
)

// ErrEmptySelection is returned when a selection matches no file.
var ErrEmptySelection = errors.New("selection matches no file")

// Selection picks files by feature, entity, group or path.
type Selection struct {
	Kind SelectionKind
	// Name is the feature, entity or group name, or the file path
	// relative to the prefix (a bare file name also matches).
	Name string
}

// Match reports whether file belongs to the selection.
func (s Selection) Match(ws *Workspace, file *model.File) bool {
	switch s.Kind {
	case "", SelectAll:
		return true
	case SelectFeature:
		f := ws.FeatureNamed(s.Name)
		return f != nil && file.Feature == f.ID
	case SelectEntity:
		e := ws.EntityNamed(s.Name)
		return e != nil && file.Entity == e.ID
	case SelectGroup:
		return file.Group == s.Name
	case SelectFile:
		return file.Path() == filepath.ToSlash(s.Name) || file.Name == s.Name
	}
	return false
}

func (s Selection) String() string {
	if s.Kind == "" || s.Kind == SelectAll {
		return string(SelectAll)
	}
	return string(s.Kind) + " " + s.Name
}

// ParseSelection reads a selection from its words: nothing or "all", or a
// kind followed by a name.
func ParseSelection(words ...string) (Selection, error) {
	if len(words) == 0 {
		return Selection{Kind: SelectAll}, nil
	}
	kind := SelectionKind(words[0])
	switch kind {
	case SelectAll:
		if len(words) != 1 {
			return Selection{}, fmt.Errorf("all takes no name")
		}
		return Selection{Kind: kind}, nil
	case SelectFeature, SelectEntity, SelectGroup, SelectFile:
		if len(words) != 2 {
			return Selection{}, fmt.Errorf("%s needs a name", kind)
		}
		return Selection{Kind: kind, Name: words[1]}, nil
	}
	return Selection{}, fmt.Errorf("unknown selection %q: must be all, feature, entity, group or file", words[0])
}

// Options tunes Generate.
type Options struct {
	// Root is the output directory. The workspace prefix path is appended.
	Root      string
	Selection Selection
	// DryRun renders without writing or formatting.
	DryRun bool
	// StoreCode keeps the rendered content in the File rows.
	StoreCode bool
	// Formatter runs after writing; nil skips formatting.
	Formatter *Formatter
	// Progress receives a percentage and a message after each file.
	Progress func(percentage int, message string)
	// Cancelled is polled before each file.
	Cancelled func() bool
	Now       func() time.Time
	Logger    *zap.Logger
}

// Output is one rendered file.
type Output struct {
	File    *model.File
	Path    string
	Content []byte
}

// Result is what Generate produced.
type Result struct {
	Outputs   []Output
	Written   []string
	Cancelled bool
	Format    FormatReport
}

// Generate renders the filled files of the workspace that match the
// selection, writes them below the output root and formats them. A
// cancelled run returns the files rendered so far with Cancelled set.
func Generate(ctx context.Context, f *uow.Factory, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("generator")

	renderer, err := DefaultRenderer()
	if err != nil {
		return nil, err
	}

	q, err := f.Query(ctx, ReadCapabilities())
	if err != nil {
		return nil, err
	}
	ws, err := LoadWorkspace(ctx, q)
	q.End()
	if err != nil {
		return nil, err
	}

	var selected []*model.File
	for _, file := range ws.Files {
		if opts.Selection.Match(ws, file) {
			selected = append(selected, file)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySelection, opts.Selection)
	}

	res := &Result{}
	snaps := NewSnapshotter(ws)
	for i, file := range selected {
		if opts.Cancelled != nil && opts.Cancelled() {
			res.Cancelled = true
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snap, err := snaps.Snapshot(file)
		if err != nil {
			return nil, err
		}
		content, err := renderer.Render(file.TemplateName, snap)
		if err != nil {
			return nil, err
		}
		out := Output{File: file, Content: content}
		if opts.Root != "" {
			out.Path = Destination(opts.Root, ws.Global.PrefixPath, file)
		}
		if !opts.DryRun && out.Path != "" {
			if err := writeFile(out.Path, content); err != nil {
				return nil, err
			}
			res.Written = append(res.Written, out.Path)
		}
		res.Outputs = append(res.Outputs, out)

		if opts.Progress != nil {
			opts.Progress((i+1)*100/len(selected), file.Path())
		}
	}
	logger.Debug("Rendered files",
		zap.Int("count", len(res.Outputs)),
		zap.Int("snapshot_builds", snaps.cache.builds),
		zap.Int("snapshot_hits", snaps.cache.hits),
		zap.Bool("cancelled", res.Cancelled))

	if opts.Formatter != nil && len(res.Written) > 0 {
		res.Format = opts.Formatter.Format(ctx, res.Written)
	}

	if opts.StoreCode && len(res.Outputs) > 0 {
		if err := storeCode(ctx, f, res.Outputs, opts.Now); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// storeCode saves the rendered content into the File rows.
func storeCode(ctx context.Context, f *uow.Factory, outputs []Output, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	cmd, err := f.Command(ctx, uow.Allow([]model.Kind{model.KindFile}, uow.ActionRead, uow.ActionUpdate))
	if err != nil {
		return err
	}
	defer cmd.Rollback()

	files := make([]*model.File, len(outputs))
	for i, out := range outputs {
		file := *out.File
		if err := file.SetGeneratedCode(string(out.Content)); err != nil {
			return err
		}
		file.UpdatedAt = now()
		files[i] = &file
	}
	if _, err := uow.Repo[*model.File](cmd).UpdateMulti(ctx, files); err != nil {
		return fmt.Errorf("store generated code: %w", err)
	}
	return cmd.Commit()
}
