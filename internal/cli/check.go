package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacquetc/qleany-sub001/internal/usecase"
)

// CheckResult is the output of the check command.
type CheckResult struct {
	Valid    bool   `json:"valid"`
	Path     string `json:"path"`
	Language string `json:"language"`
	Entities int    `json:"entities"`
	Features int    `json:"features"`
	UseCases int    `json:"use_cases"`
}

func (r CheckResult) String() string {
	return fmt.Sprintf("✓ %s is valid (%s): %d entities, %d features, %d use cases",
		r.Path, r.Language, r.Entities, r.Features, r.UseCases)
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the manifest without generating",
		Long: `Parse the manifest, migrate it to the current schema version and
validate its shape and semantics. Nothing is written.

Exits with 1 when the manifest is invalid.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	m, err := usecase.CheckManifest(opts.Manifest)
	if err != nil {
		return reportError(out, err)
	}

	res := CheckResult{
		Valid:    true,
		Path:     opts.Manifest,
		Language: m.Global.Language,
		Entities: len(m.Entities),
		Features: len(m.Features),
	}
	for _, f := range m.Features {
		res.UseCases += len(f.UseCases)
	}
	return out.Success(res)
}
