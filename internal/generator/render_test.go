package generator

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRenderer_CoversEveryRule(t *testing.T) {
	r, err := DefaultRenderer()
	require.NoError(t, err)

	assert.NotContains(t, r.Names(), "shared")
	for _, rules := range [][]Rule{rustRules, cppQtRules} {
		for _, rule := range rules {
			assert.True(t, r.Has(rule.Template), rule.Template)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := DefaultRenderer()
	require.NoError(t, err)

	_, err = r.Render("rust/nope.rs", &GenerationSnapshot{})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRender_ExecutionFailure(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/shared.tmpl":  {Data: []byte(`{{define "hello"}}hello {{.}}{{end}}`)},
		"templates/ok.txt.tmpl":  {Data: []byte(`{{template "hello" .s.File.Name}}`)},
		"templates/bad.txt.tmpl": {Data: []byte(`{{.s.Entity.Pascal}}`)},
	}
	r, err := NewRenderer(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.txt", "ok.txt"}, r.Names())

	snap := &GenerationSnapshot{File: FileView{Name: "x.txt", Path: "dir/x.txt"}}
	out, err := r.Render("ok.txt", snap)
	require.NoError(t, err)
	assert.Equal(t, "hello x.txt", string(out))

	_, err = r.Render("bad.txt", snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRenderFailed)
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "bad.txt", re.Template)
	assert.Equal(t, "dir/x.txt", re.File)
}

func TestNewRenderer_ParseError(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/broken.tmpl": {Data: []byte(`{{if}}`)},
	}
	_, err := NewRenderer(fsys)
	assert.ErrorContains(t, err, "parse broken")
}
