package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jacquetc/qleany-sub001/internal/manifest"
	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Language  string
	Name      string
	OrgName   string
	OrgDomain string
	Force     bool
}

// NewResult is the output of the new command.
type NewResult struct {
	Path     string `json:"path"`
	Language string `json:"language"`
}

func (r NewResult) String() string {
	return fmt.Sprintf("✓ Created %s (%s)", r.Path, r.Language)
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new [PATH]",
		Short: "Write a starter manifest",
		Long: `Write a starter manifest with a heritage base entity, a Root entity
and one item entity.

PATH may be a manifest file or a directory; it defaults to --manifest.

Example:
  qleany new --language rust --name Library
  qleany new ./notes --language cpp-qt --org-name Acme --org-domain acme.org`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Manifest
			if len(args) == 1 {
				path = args[0]
			}
			return runNew(opts, path, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Language, "language", "l", string(model.LanguageRust), "target language (rust|cpp-qt)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "application name (default: MyApp)")
	cmd.Flags().StringVar(&opts.OrgName, "org-name", "", "organisation name")
	cmd.Flags().StringVar(&opts.OrgDomain, "org-domain", "", "organisation domain")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "overwrite an existing manifest")

	return cmd
}

func runNew(opts *NewOptions, path string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	lang, err := model.ParseLanguage(opts.Language)
	if err != nil {
		out.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid language", err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultManifest)
	}

	written, err := usecase.NewManifest(path, manifest.StarterOptions{
		Language:           lang,
		ApplicationName:    opts.Name,
		OrganisationName:   opts.OrgName,
		OrganisationDomain: opts.OrgDomain,
	}, opts.Force)
	if err != nil {
		return reportError(out, err)
	}
	return out.Success(NewResult{Path: written, Language: string(lang)})
}
