package cli

import (
	"github.com/spf13/cobra"
)

// MermaidDiagram is the output of export mermaid.
type MermaidDiagram struct {
	Diagram string `json:"diagram"`
}

func (d MermaidDiagram) String() string {
	return d.Diagram
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the manifest model",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "mermaid",
		Short: "Print the entities as a Mermaid ER diagram",
		Long: `Print the entities and their relationships as a Mermaid erDiagram.

Example:
  qleany export mermaid > model.mmd`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportMermaid(rootOpts, cmd)
		},
	})

	return cmd
}

func runExportMermaid(opts *RootOptions, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, out)
	if err != nil {
		return err
	}
	defer s.Close()

	diagram, err := s.svc.ExportMermaid(ctx)
	if err != nil {
		return reportError(out, err)
	}
	return out.Success(MermaidDiagram{Diagram: diagram})
}
