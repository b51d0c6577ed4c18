package generator

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jacquetc/qleany-sub001/internal/logging"
)

// maxStderr bounds the formatter output kept in a warning.
const maxStderr = 400

// Runner executes an external formatter.
type Runner func(ctx context.Context, bin string, args ...string) error

func execRunner(ctx context.Context, bin string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, logging.TruncateString(msg, maxStderr))
		}
		return err
	}
	return nil
}

// Formatter runs clang-format on C++ sources and rustfmt on Rust sources.
// A missing or failing formatter never fails generation; it is reported
// as a warning.
type Formatter struct {
	clangFormat string
	rustfmt     string
	clangStyle  string
	chunkSize   int
	run         Runner
	lookPath    func(string) (string, error)
	logger      *zap.Logger
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithClangFormat sets the clang-format binary instead of looking it up.
func WithClangFormat(bin string) FormatterOption {
	return func(f *Formatter) { f.clangFormat = bin }
}

// WithRustfmt sets the rustfmt binary instead of looking it up.
func WithRustfmt(bin string) FormatterOption {
	return func(f *Formatter) { f.rustfmt = bin }
}

// WithClangStyle sets the --style passed to clang-format.
func WithClangStyle(style string) FormatterOption {
	return func(f *Formatter) { f.clangStyle = style }
}

// WithChunkSize bounds the number of paths per invocation.
func WithChunkSize(n int) FormatterOption {
	return func(f *Formatter) { f.chunkSize = n }
}

// WithRunner replaces process execution.
func WithRunner(run Runner) FormatterOption {
	return func(f *Formatter) { f.run = run }
}

// WithLookPath replaces binary discovery through PATH.
func WithLookPath(lookPath func(string) (string, error)) FormatterOption {
	return func(f *Formatter) { f.lookPath = lookPath }
}

// WithFormatterLogger sets the logger.
func WithFormatterLogger(logger *zap.Logger) FormatterOption {
	return func(f *Formatter) { f.logger = logger }
}

// NewFormatter resolves the formatter binaries.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		clangStyle: "Microsoft",
		chunkSize:  100,
		run:        execRunner,
		lookPath:   exec.LookPath,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.chunkSize < 1 {
		f.chunkSize = 1
	}
	if f.clangFormat == "" {
		f.clangFormat, _ = f.lookPath("clang-format")
	}
	if f.rustfmt == "" {
		f.rustfmt, _ = f.lookPath("rustfmt")
	}
	return f
}

// FormatReport summarises a Format call.
type FormatReport struct {
	Formatted int
	Warnings  []string
}

// Format formats paths in place, grouped by language and split into
// chunks that run concurrently.
func (f *Formatter) Format(ctx context.Context, paths []string) FormatReport {
	var cpp, rust []string
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".h", ".hpp", ".cpp", ".cc":
			cpp = append(cpp, p)
		case ".rs":
			rust = append(rust, p)
		}
	}

	var (
		mu     sync.Mutex
		report FormatReport
	)
	warn := func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		report.Warnings = append(report.Warnings, msg)
		f.logger.Warn("Formatter warning", zap.String("detail", msg))
	}

	type job struct {
		bin   string
		args  []string
		paths []string
	}
	var jobs []job
	if len(cpp) > 0 {
		if f.clangFormat == "" {
			warn("clang-format not found, C++ files left unformatted")
		} else {
			for _, chunk := range chunks(cpp, f.chunkSize) {
				jobs = append(jobs, job{f.clangFormat, []string{"-i", "--style=" + f.clangStyle}, chunk})
			}
		}
	}
	if len(rust) > 0 {
		if f.rustfmt == "" {
			warn("rustfmt not found, Rust files left unformatted")
		} else {
			for _, chunk := range chunks(rust, f.chunkSize) {
				jobs = append(jobs, job{f.rustfmt, []string{"--edition", "2021"}, chunk})
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, j := range jobs {
		g.Go(func() error {
			args := append(append([]string{}, j.args...), j.paths...)
			if err := f.run(gctx, j.bin, args...); err != nil {
				warn(fmt.Sprintf("%s failed on %d files: %v", filepath.Base(j.bin), len(j.paths), err))
				return nil
			}
			mu.Lock()
			report.Formatted += len(j.paths)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}

func chunks(paths []string, size int) [][]string {
	var out [][]string
	for len(paths) > size {
		out = append(out, paths[:size:size])
		paths = paths[size:]
	}
	if len(paths) > 0 {
		out = append(out, paths)
	}
	return out
}
