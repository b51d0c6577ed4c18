package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "plain" | "json" | "tree"
	Manifest string
	Database string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"plain", "json", "tree"}

// DefaultManifest is the manifest looked up in the working directory.
const DefaultManifest = "qleany.yaml"

// NewRootCommand creates the root command for the qleany CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qleany",
		Short: "qleany - architecture scaffolding generator",
		Long: `Generate Rust and C++/Qt project scaffolding from a YAML manifest.

The manifest declares entities, fields, relationships, features and use
cases. qleany loads it into its store, derives the relationships and renders
the project tree from its templates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "plain", "output format (plain|json|tree)")
	cmd.PersistentFlags().StringVarP(&opts.Manifest, "manifest", "m", DefaultManifest, "path to the manifest")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the store (default: temporary, env QLEANY_DB)")

	cmd.AddCommand(NewNewCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewDocsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
