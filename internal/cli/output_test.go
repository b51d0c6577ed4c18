package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeInvalid, "manifest has 1 error(s)", []string{"entities[0]: bad"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalid, resp.Error.Code)
	assert.Equal(t, "manifest has 1 error(s)", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_PlainSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "plain",
		Writer: buf,
	}

	err := formatter.Success("manifest is valid")
	require.NoError(t, err)
	assert.Equal(t, "manifest is valid\n", buf.String())
}

func TestOutputFormatter_PlainErrorListsDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "plain",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeShape, "manifest has an invalid shape", []string{"global.language: conflicting values"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E102]: manifest has an invalid shape")
	assert.Contains(t, buf.String(), "  - global.language: conflicting values")
}

func TestOutputFormatter_TreeFallsBackToPlain(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "tree",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("no tree"))
	assert.Equal(t, "no tree\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			errBuf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    buf,
				ErrWriter: errBuf,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Loading %s", "qleany.yaml")

			assert.Empty(t, buf.String())
			if tt.wantLog {
				assert.Contains(t, errBuf.String(), "Loading qleany.yaml")
			} else {
				assert.Empty(t, errBuf.String())
			}
		})
	}
}

func TestTreeNode_String(t *testing.T) {
	root := &TreeNode{Label: "Book"}
	fields := root.Add("fields")
	fields.Add("title: string")
	fields.Add("genre: enum")
	root.Add("relationships")

	want := "Book\n" +
		"├── fields\n" +
		"│   ├── title: string\n" +
		"│   └── genre: enum\n" +
		"└── relationships\n"
	assert.Equal(t, want, root.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "invalid")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("unknown flag")))

	wrapped := WrapExitError(ExitFailure, "invalid manifest", errors.New("bad"))
	assert.Equal(t, "invalid manifest: bad", wrapped.Error())
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}
