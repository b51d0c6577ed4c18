package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jacquetc/qleany-sub001/internal/app"
	"github.com/jacquetc/qleany-sub001/internal/config"
	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/logging"
	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// newFormatter returns the formatter of a command run.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads qleany.config.yaml and the environment, then applies
// the global flags.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.DefaultFile)
	if err != nil {
		return nil, err
	}
	if opts.Database != "" {
		cfg.DatabasePath = opts.Database
		cfg.Ephemeral = false
	}
	return cfg, nil
}

// session is an open application context with the manifest loaded.
type session struct {
	app  *app.App
	svc  *usecase.Service
	out  *OutputFormatter
	opts *RootOptions
	// manifestDir is the default output root.
	manifestDir string
}

// openSession opens the store and loads the manifest named by --manifest.
// Failures are reported through out and returned as ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, out *OutputFormatter) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger, err := logging.New(logging.Verbose(cfg.LogLevel, opts.Verbose))
	if err != nil {
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, reportError(out, err)
	}
	s := &session{app: a, svc: a.Service, out: out, opts: opts}

	out.VerboseLog("Loading %s", opts.Manifest)
	if _, err := s.svc.LoadManifest(ctx, opts.Manifest); err != nil {
		s.Close()
		return nil, reportError(out, err)
	}
	abs, err := filepath.Abs(opts.Manifest)
	if err != nil {
		s.Close()
		return nil, reportError(out, err)
	}
	s.manifestDir = filepath.Dir(abs)
	return s, nil
}

// Close releases the application context.
func (s *session) Close() {
	if err := s.app.Close(); err != nil {
		s.app.Logger.Warn("close application", zap.Error(err))
	}
	_ = s.app.Logger.Sync()
}

// reportError prints err with the matching error code and returns the
// ExitError carrying its exit code. Manifest problems exit with
// ExitFailure, everything else with ExitCommandError.
func reportError(out *OutputFormatter, err error) error {
	var (
		schemaErr *manifest.SchemaError
		shapeErr  *manifest.ShapeError
		invalid   manifest.ValidationErrors
		renderErr *generator.RenderError
	)
	switch {
	case errors.As(err, &schemaErr):
		out.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitFailure, "unsupported manifest schema", err)
	case errors.As(err, &shapeErr):
		out.Error(ErrCodeShape, "manifest has an invalid shape", shapeErr.Violations)
		return WrapExitError(ExitFailure, "invalid manifest shape", err)
	case errors.As(err, &invalid):
		lines := make([]string, len(invalid))
		for i, v := range invalid {
			lines[i] = fmt.Sprintf("%s: %s (%s)", v.Field, v.Message, v.Code)
		}
		out.Error(ErrCodeInvalid, fmt.Sprintf("manifest has %d error(s)", len(invalid)), lines)
		return WrapExitError(ExitFailure, "invalid manifest", err)
	case errors.Is(err, fs.ErrNotExist):
		out.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "not found", err)
	case errors.Is(err, fs.ErrPermission):
		out.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write failed", err)
	case errors.Is(err, manifest.ErrNoWorkspace):
		out.Error(ErrCodeNoWorkspace, err.Error(), nil)
		return WrapExitError(ExitCommandError, "no manifest", err)
	case errors.Is(err, usecase.ErrManifestExists):
		out.Error(ErrCodeExists, err.Error()+" (use --force to overwrite)", nil)
		return WrapExitError(ExitCommandError, "manifest exists", err)
	case errors.Is(err, generator.ErrEmptySelection):
		out.Error(ErrCodeUnknownName, err.Error(), nil)
		return WrapExitError(ExitCommandError, "empty selection", err)
	case errors.Is(err, usecase.ErrInvariantViolated):
		out.Error(ErrCodeInvariant, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invariant violated", err)
	case errors.As(err, &renderErr), errors.Is(err, generator.ErrTemplateNotFound):
		out.Error(ErrCodeGeneration, err.Error(), nil)
		return WrapExitError(ExitCommandError, "generation failed", err)
	}
	out.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitCommandError, "command failed", err)
}

// unknownName reports a name that matched nothing.
func unknownName(out *OutputFormatter, what, name string) error {
	msg := fmt.Sprintf("unknown %s %q", what, name)
	out.Error(ErrCodeUnknownName, msg, nil)
	return NewExitError(ExitCommandError, msg)
}
