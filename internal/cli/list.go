package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jacquetc/qleany-sub001/internal/generator"
	"github.com/jacquetc/qleany-sub001/internal/model"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	ExistingOnly bool
}

// FileItem is one row of list files.
type FileItem struct {
	Path     string `json:"path"`
	Group    string `json:"group"`
	Template string `json:"template"`
	Status   string `json:"status"`
}

// FileList is the output of list files.
type FileList []FileItem

func (l FileList) String() string {
	var b strings.Builder
	for _, f := range l {
		fmt.Fprintf(&b, "%-8s %s\n", f.Status, f.Path)
	}
	return b.String()
}

func (l FileList) Tree() *TreeNode {
	root := &TreeNode{Label: "files"}
	groups := map[string]*TreeNode{}
	for _, f := range l {
		g, ok := groups[f.Group]
		if !ok {
			g = root.Add(f.Group)
			groups[f.Group] = g
		}
		g.Add(fmt.Sprintf("%s (%s)", f.Path, f.Status))
	}
	return root
}

// NamedItem is one row of list entities, features or groups.
type NamedItem struct {
	Name  string `json:"name"`
	Files int    `json:"files"`
	// Existing counts the files already present in the output directory.
	Existing int `json:"existing"`
}

// NamedList is the output of list entities, features and groups.
type NamedList struct {
	Kind  string      `json:"kind"`
	Items []NamedItem `json:"items"`
}

func (l NamedList) String() string {
	var b strings.Builder
	for _, it := range l.Items {
		fmt.Fprintf(&b, "%s (%d files, %d existing)\n", it.Name, it.Files, it.Existing)
	}
	return b.String()
}

func (l NamedList) Tree() *TreeNode {
	root := &TreeNode{Label: l.Kind}
	for _, it := range l.Items {
		root.Add(fmt.Sprintf("%s (%d files)", it.Name, it.Files))
	}
	return root
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list files|entities|features|groups",
		Short: "List what the manifest generates",
		Long: `List the files, entities, features or file groups of the manifest.

Files already present next to the manifest are reported as existing;
--existing-only keeps only those (and the names owning at least one).

Example:
  qleany list files --existing-only
  qleany list groups --format json`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"files", "entities", "features", "groups"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ExistingOnly, "existing-only", false, "only files that already exist")

	return cmd
}

func runList(opts *ListOptions, what string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	switch what {
	case "files", "entities", "features", "groups":
	default:
		return unknownName(out, "list", what)
	}

	s, err := openSession(ctx, opts.RootOptions, out)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.svc.FillFiles(ctx, s.manifestDir); err != nil {
		return reportError(out, err)
	}
	ws, err := s.svc.Workspace(ctx)
	if err != nil {
		return reportError(out, err)
	}

	switch what {
	case "files":
		list := FileList{}
		for _, f := range ws.Files {
			if opts.ExistingOnly && !f.Status.OnDisk() {
				continue
			}
			list = append(list, FileItem{Path: f.Path(), Group: f.Group, Template: f.TemplateName, Status: string(f.Status)})
		}
		return out.Success(list)
	case "entities":
		var names []string
		for _, e := range ws.Entities {
			names = append(names, e.Name)
		}
		return out.Success(countFiles(ws, "entities", names, opts.ExistingOnly, func(f *model.File) string {
			return entityName(ws, f.Entity)
		}))
	case "features":
		var names []string
		for _, f := range ws.Features {
			names = append(names, f.Name)
		}
		return out.Success(countFiles(ws, "features", names, opts.ExistingOnly, func(f *model.File) string {
			for _, feat := range ws.Features {
				if feat.ID == f.Feature {
					return feat.Name
				}
			}
			return ""
		}))
	}

	seen := map[string]bool{}
	var groups []string
	for _, f := range ws.Files {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	sort.Strings(groups)
	return out.Success(countFiles(ws, "groups", groups, opts.ExistingOnly, func(f *model.File) string {
		return f.Group
	}))
}

// countFiles counts the files of every name; owner maps a file to its name.
func countFiles(ws *generator.Workspace, kind string, names []string, existingOnly bool, owner func(*model.File) string) NamedList {
	counts := map[string]*NamedItem{}
	for _, n := range names {
		counts[n] = &NamedItem{Name: n}
	}
	for _, f := range ws.Files {
		it, ok := counts[owner(f)]
		if !ok {
			continue
		}
		it.Files++
		if f.Status.OnDisk() {
			it.Existing++
		}
	}
	list := NamedList{Kind: kind, Items: []NamedItem{}}
	for _, n := range names {
		it := counts[n]
		if existingOnly && it.Existing == 0 {
			continue
		}
		list.Items = append(list.Items, *it)
	}
	return list
}
