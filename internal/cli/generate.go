package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jacquetc/qleany-sub001/internal/event"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/longop"
	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	DryRun   bool
	Temp     bool
	Output   string
	NoFormat bool
}

// GenerateView is the output of the generate command.
type GenerateView struct {
	Root      string   `json:"root"`
	Selection string   `json:"selection"`
	DryRun    bool     `json:"dry_run"`
	Cancelled bool     `json:"cancelled,omitempty"`
	Files     []string `json:"files"`
	Written   []string `json:"written"`
	Formatted int      `json:"formatted,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (v GenerateView) String() string {
	var b strings.Builder
	for _, f := range v.Files {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	for _, w := range v.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	switch {
	case v.Cancelled:
		fmt.Fprintf(&b, "✗ Cancelled after %d of the selected files (%s)\n", len(v.Files), v.Selection)
	case v.DryRun:
		fmt.Fprintf(&b, "✓ Would write %d file(s) to %s (%s)\n", len(v.Files), v.Root, v.Selection)
	default:
		fmt.Fprintf(&b, "✓ Wrote %d file(s) to %s (%s)\n", len(v.Written), v.Root, v.Selection)
	}
	return b.String()
}

func (v GenerateView) Tree() *TreeNode {
	root := &TreeNode{Label: v.Root}
	dirs := map[string]*TreeNode{"": root}
	for _, f := range v.Files {
		parts := strings.Split(f, "/")
		parent, path := root, ""
		for _, dir := range parts[:len(parts)-1] {
			if path == "" {
				path = dir
			} else {
				path += "/" + dir
			}
			node, ok := dirs[path]
			if !ok {
				node = parent.Add(dir)
				dirs[path] = node
			}
			parent = node
		}
		parent.Add(parts[len(parts)-1])
	}
	return root
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate [all | feature NAME | entity NAME | group NAME | file PATH]",
		Short: "Generate project files from the manifest",
		Long: `Fill the file list of the manifest and render the selected files.

Without arguments every file is generated. Files are written below the
directory of the manifest unless --output or --temp is given.

Ctrl-C stops after the current file and reports what was written.

Example:
  qleany generate --dry-run
  qleany generate entity Book --output ./out
  qleany generate file crates/common/src/entities.rs --temp`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "render without writing")
	cmd.Flags().BoolVar(&opts.Temp, "temp", false, "write into a new temporary directory")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default: the manifest directory)")
	cmd.Flags().BoolVar(&opts.NoFormat, "no-format", false, "skip clang-format and rustfmt")

	return cmd
}

func runGenerate(opts *GenerateOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	sel, err := generator.ParseSelection(args...)
	if err != nil {
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid selection", err)
	}
	if opts.Temp && opts.Output != "" {
		err := errors.New("--temp and --output are mutually exclusive")
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	parentCtx := commandContext(cmd)
	s, err := openSession(parentCtx, opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer s.Close()

	root := s.manifestDir
	switch {
	case opts.Output != "":
		root = opts.Output
	case opts.Temp:
		if root, err = os.MkdirTemp("", "qleany-"); err != nil {
			return reportError(out, err)
		}
	}

	files, err := s.svc.FillFiles(parentCtx, root)
	if err != nil {
		return reportError(out, err)
	}
	out.VerboseLog("%d file(s) in the manifest", len(files))

	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ops := s.svc.Operations()
	if opts.Verbose {
		// Only one operation runs per process.
		unsubscribe := s.app.Dispatcher.Subscribe(event.LongOperation(event.Progress), func(e event.Event) {
			if p, err := ops.Progress(e.Data); err == nil {
				out.VerboseLog("[%3d%%] %s", p.Percentage, p.Message)
			}
		})
		defer unsubscribe()
	}
	id := s.svc.StartGenerate(ctx, generateRequest(opts, root, sel))

	// The operation sees the signal through ctx and stops on its own.
	if _, err := ops.Wait(context.WithoutCancel(ctx), id); err != nil {
		return reportError(out, err)
	}
	res, err := s.svc.GenerateResult(id)
	if err != nil && !errors.Is(err, longop.ErrCancelled) {
		return reportError(out, err)
	}
	view := GenerateView{
		Root:      root,
		Selection: sel.String(),
		DryRun:    opts.DryRun,
		Cancelled: errors.Is(err, longop.ErrCancelled),
		Files:     []string{},
		Written:   []string{},
	}
	if res != nil {
		view.Cancelled = view.Cancelled || res.Cancelled
		for _, o := range res.Outputs {
			view.Files = append(view.Files, o.File.Path())
		}
		view.Written = append(view.Written, res.Written...)
		view.Formatted = res.Format.Formatted
		view.Warnings = res.Format.Warnings
	}
	return out.Success(view)
}

func generateRequest(opts *GenerateOptions, root string, sel generator.Selection) usecase.GenerateRequest {
	return usecase.GenerateRequest{
		Root:      root,
		Selection: sel,
		DryRun:    opts.DryRun,
		Format:    !opts.NoFormat,
	}
}
