package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacquetc/qleany-sub001/internal/docs"
)

// TopicList is the output of docs without a topic.
type TopicList []TopicItem

// TopicItem names one documentation topic.
type TopicItem struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

func (l TopicList) String() string {
	var b strings.Builder
	for _, t := range l {
		fmt.Fprintf(&b, "%-15s %s\n", t.Name, t.Title)
	}
	return b.String()
}

// DocPage is the output of docs with a topic.
type DocPage struct {
	Topic string `json:"topic"`
	Body  string `json:"body"`
}

func (p DocPage) String() string {
	return p.Body
}

// NewDocsCommand creates the docs command.
func NewDocsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs [TOPIC|all]",
		Short: "Read the documentation",
		Long: `Print a documentation topic, or every topic with "all".
Without arguments the topics are listed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runDocs(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	if len(args) == 0 {
		list := TopicList{}
		for _, t := range docs.Topics() {
			list = append(list, TopicItem{Name: t.Name, Title: t.Title})
		}
		return out.Success(list)
	}
	if args[0] == "all" {
		return out.Success(DocPage{Topic: "all", Body: docs.All()})
	}
	body, err := docs.Get(args[0])
	if err != nil {
		return unknownName(out, "topic", args[0])
	}
	return out.Success(DocPage{Topic: args[0], Body: body})
}
