package generator

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates
var templateFS embed.FS

// helpersFile holds the shared {{define}} blocks; it is not a template of
// its own.
const helpersFile = "templates/shared.tmpl"

// Renderer executes the embedded templates.
type Renderer struct {
	templates map[string]*template.Template
}

var (
	defaultRenderer     *Renderer
	defaultRendererErr  error
	defaultRendererOnce sync.Once
)

// DefaultRenderer parses the embedded templates once.
func DefaultRenderer() (*Renderer, error) {
	defaultRendererOnce.Do(func() {
		defaultRenderer, defaultRendererErr = NewRenderer(templateFS)
	})
	return defaultRenderer, defaultRendererErr
}

// NewRenderer parses every *.tmpl file under templates/ in fsys. A template
// is named by its path below templates/ without the extension, such as
// "rust/entities.rs".
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	base := template.New("shared").Funcs(funcMap())
	if helpers, err := fs.ReadFile(fsys, helpersFile); err == nil {
		if _, err := base.Parse(string(helpers)); err != nil {
			return nil, fmt.Errorf("parse helpers: %w", err)
		}
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	err := fs.WalkDir(fsys, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || p == helpersFile || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl")
		src, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		t, err := base.Clone()
		if err != nil {
			return err
		}
		t, err = t.New(name).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		r.templates[name] = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Names lists the template names in lexical order.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for n := range r.templates {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Has reports whether name is a known template.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes template name with snap bound as .s.
func (r *Renderer) Render(name string, snap *GenerationSnapshot) ([]byte, error) {
	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, map[string]any{"s": snap}); err != nil {
		return nil, &RenderError{Template: name, File: snap.File.Path, Cause: err}
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"snake":  Snake,
		"pascal": Pascal,
		"camel":  Camel,
		"plural": Plural,
		"upper":  strings.ToUpper,
		"lower":  strings.ToLower,
		"join":   strings.Join,
		"quote":  strconv.Quote,
		"add": func(a, b int) int {
			return a + b
		},
		"last": func(i, n int) bool {
			return i == n-1
		},
	}
}
