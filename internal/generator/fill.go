package generator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/jacquetc/qleany-sub001/internal/model"
	"github.com/jacquetc/qleany-sub001/internal/uow"
)

// FillOptions tunes FillFiles.
type FillOptions struct {
	// OutputRoot, when set, is used to mark files that already exist, and
	// those older than the manifest as stale.
	OutputRoot string
	Now        func() time.Time
}

// FillCapabilities is what FillFiles declares on its unit of work.
func FillCapabilities() uow.Capabilities {
	caps := ReadCapabilities()
	caps.Append(uow.ReadWrite(model.KindFile, model.KindSystem).ToSlice()...)
	return caps
}

// Plan expands the rule table of the workspace language into File rows,
// without ids. The result depends only on the workspace.
func Plan(ws *Workspace) []*model.File {
	app := Snake(ws.Global.ApplicationName)
	var files []*model.File
	add := func(r Rule, p Placeholders, refs func(f *model.File)) {
		rel := p.Expand(r.Path)
		dir := path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		f := &model.File{
			Name:         path.Base(rel),
			RelativePath: dir,
			Group:        p.Expand(r.Group),
			TemplateName: r.Template,
			Status:       model.FileStatusNew,
		}
		if refs != nil {
			refs(f)
		}
		files = append(files, f)
	}

	for _, r := range Rules(ws.Global.Language) {
		if r.When != nil && !r.When(ws.UI) {
			continue
		}
		switch r.Scope {
		case ScopeProject:
			add(r, Placeholders{App: app}, nil)
		case ScopeEntity:
			for _, e := range ws.Entities {
				if e.OnlyForHeritage {
					continue
				}
				add(r, Placeholders{App: app, Entity: Snake(e.Name)}, func(f *model.File) {
					f.Entity = e.ID
				})
			}
		case ScopeFeature:
			for _, feat := range ws.Features {
				add(r, Placeholders{App: app, Feature: Snake(feat.Name)}, func(f *model.File) {
					f.Feature = feat.ID
				})
			}
		case ScopeUseCase:
			for _, feat := range ws.Features {
				for _, id := range feat.UseCases {
					uc := ws.UseCases[id]
					if uc == nil {
						continue
					}
					p := Placeholders{App: app, Feature: Snake(feat.Name), UseCase: Snake(uc.Name)}
					add(r, p, func(f *model.File) {
						f.Feature = feat.ID
						f.UseCase = uc.ID
					})
				}
			}
		}
	}
	return files
}

// FillFiles replaces the System's files with a fresh Plan of the loaded
// workspace and returns the created rows in plan order.
func FillFiles(ctx context.Context, f *uow.Factory, opts FillOptions) ([]*model.File, error) {
	cmd, err := f.Command(ctx, FillCapabilities())
	if err != nil {
		return nil, err
	}
	defer cmd.Rollback()

	ws, err := LoadWorkspace(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if ws.SystemID == 0 {
		return nil, errors.New("fill files: database has no system record")
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var manifestTime time.Time
	if opts.OutputRoot != "" && ws.ManifestPath != "" {
		info, err := statFile(ws.ManifestPath)
		if err != nil {
			return nil, err
		}
		if info != nil {
			manifestTime = info.ModTime()
		}
	}

	files := Plan(ws)
	for _, file := range files {
		stamp := now()
		file.CreatedAt, file.UpdatedAt = stamp, stamp
		if opts.OutputRoot == "" {
			continue
		}
		info, err := statFile(Destination(opts.OutputRoot, ws.Global.PrefixPath, file))
		if err != nil {
			return nil, err
		}
		switch {
		case info == nil:
		case info.ModTime().Before(manifestTime):
			file.Status = model.FileStatusStale
		default:
			file.Status = model.FileStatusExisting
		}
	}

	repo := uow.Repo[*model.File](cmd)
	if len(ws.Files) > 0 {
		ids := make([]model.EntityID, len(ws.Files))
		for i, old := range ws.Files {
			ids[i] = old.ID
		}
		if err := repo.DeleteMulti(ctx, ids); err != nil {
			return nil, fmt.Errorf("drop previous files: %w", err)
		}
	}
	created, err := repo.CreateMulti(ctx, files)
	if err != nil {
		return nil, err
	}
	ids := make([]model.EntityID, len(created))
	for i, file := range created {
		ids[i] = file.ID
	}
	if err := uow.Repo[*model.System](cmd).SetRelationship(ctx, ws.SystemID, "files", ids); err != nil {
		return nil, err
	}
	if err := cmd.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

// statFile returns nil info when p does not exist.
func statFile(p string) (fs.FileInfo, error) {
	info, err := os.Stat(p)
	switch {
	case err == nil:
		return info, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	default:
		return nil, fmt.Errorf("stat %s: %w", p, err)
	}
}
