package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "qleany", cmd.Use)
	assert.Contains(t, cmd.Long, "manifest")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"new"}, {"check"}, {"generate"}, {"docs"},
		{"show", "manifest"}, {"show", "config"}, {"show", "entity"}, {"show", "feature"},
		{"list"}, {"export", "mermaid"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "plain", formatFlag.DefValue)

	manifestFlag := cmd.PersistentFlags().Lookup("manifest")
	require.NotNil(t, manifestFlag)
	assert.Equal(t, "m", manifestFlag.Shorthand)
	assert.Equal(t, DefaultManifest, manifestFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestNewCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	newCmd, _, err := cmd.Find([]string{"new"})
	require.NoError(t, err)

	for _, name := range []string{"language", "name", "org-name", "org-domain", "force"} {
		assert.NotNil(t, newCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "rust", newCmd.Flags().Lookup("language").DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	genCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	outputFlag := genCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
	assert.NotNil(t, genCmd.Flags().Lookup("dry-run"))
	assert.NotNil(t, genCmd.Flags().Lookup("temp"))
}

func TestListCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	listCmd, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	assert.NotNil(t, listCmd.Flags().Lookup("existing-only"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "docs", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
