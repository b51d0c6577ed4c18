package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
)

// NewShowCommand creates the show command and its subcommands.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the manifest, configuration, an entity or a feature",
		Long: `Show one part of the loaded manifest or the effective configuration.

Example:
  qleany show manifest
  qleany show entity Book --format tree
  qleany show feature catalog --format json`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "manifest",
		Short:         "Print the manifest as qleany stores it",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowManifest(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "config",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowConfig(rootOpts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "entity NAME",
		Short:         "Print an entity with its fields and relationships",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowEntity(rootOpts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "feature NAME",
		Short:         "Print a feature with its use cases and DTOs",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowFeature(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

// ManifestDocument prints as YAML and encodes as the equivalent JSON tree.
type ManifestDocument struct {
	data []byte
}

func (d ManifestDocument) String() string {
	return string(d.data)
}

func (d ManifestDocument) MarshalJSON() ([]byte, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(d.data, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

func runShowManifest(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, out)
	if err != nil {
		return err
	}
	defer s.Close()

	m, err := s.svc.ExportManifest(ctx)
	if err != nil {
		return reportError(out, err)
	}
	data, err := manifest.Marshal(m)
	if err != nil {
		return reportError(out, err)
	}
	return out.Success(ManifestDocument{data: data})
}

// ConfigInfo is the output of show config.
type ConfigInfo struct {
	DatabasePath      string `json:"database_path"`
	Ephemeral         bool   `json:"ephemeral"`
	LogLevel          string `json:"log_level"`
	UndoLimit         int    `json:"undo_limit"`
	EventPollInterval string `json:"event_poll_interval"`
	ClangFormat       string `json:"clang_format,omitempty"`
	Rustfmt           string `json:"rustfmt,omitempty"`
	ClangStyle        string `json:"clang_style"`
	ChunkSize         int    `json:"chunk_size"`
}

func (c ConfigInfo) String() string {
	var b strings.Builder
	db := c.DatabasePath
	if c.Ephemeral {
		db += " (temporary)"
	}
	fmt.Fprintf(&b, "database:        %s\n", db)
	fmt.Fprintf(&b, "log level:       %s\n", c.LogLevel)
	fmt.Fprintf(&b, "undo limit:      %d\n", c.UndoLimit)
	fmt.Fprintf(&b, "event poll:      %s\n", c.EventPollInterval)
	fmt.Fprintf(&b, "clang-format:    %s\n", orDefault(c.ClangFormat, "from PATH"))
	fmt.Fprintf(&b, "rustfmt:         %s\n", orDefault(c.Rustfmt, "from PATH"))
	fmt.Fprintf(&b, "clang style:     %s\n", c.ClangStyle)
	fmt.Fprintf(&b, "format chunk:    %d\n", c.ChunkSize)
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func runShowConfig(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return out.Success(ConfigInfo{
		DatabasePath:      cfg.DatabasePath,
		Ephemeral:         cfg.Ephemeral,
		LogLevel:          cfg.LogLevel,
		UndoLimit:         cfg.UndoLimit,
		EventPollInterval: cfg.EventPollInterval.String(),
		ClangFormat:       cfg.Formatter.ClangFormat,
		Rustfmt:           cfg.Formatter.Rustfmt,
		ClangStyle:        cfg.Formatter.ClangStyle,
		ChunkSize:         cfg.Formatter.ChunkSize,
	})
}

func runShowEntity(opts *RootOptions, name string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, out)
	if err != nil {
		return err
	}
	defer s.Close()

	ws, err := s.svc.Workspace(ctx)
	if err != nil {
		return reportError(out, err)
	}
	e := ws.EntityNamed(name)
	if e == nil {
		return unknownName(out, "entity", name)
	}
	return out.Success(entityInfo(ws, e))
}

func runShowFeature(opts *RootOptions, name string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, out)
	if err != nil {
		return err
	}
	defer s.Close()

	ws, err := s.svc.Workspace(ctx)
	if err != nil {
		return reportError(out, err)
	}
	f := ws.FeatureNamed(name)
	if f == nil {
		return unknownName(out, "feature", name)
	}
	return out.Success(featureInfo(ws, f))
}
