package modhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHostState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.json")
	content := `{
		// comments and trailing commas are fine
		"Enabled": ["CoreLib", "extras",],
		"DirOverrides": { "CoreLib": "core-lib", },
		"LoadDisabled": true,
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	state, err := LoadHostState(path)
	require.NoError(t, err)
	assert.True(t, state.LoadDisabled)
	assert.True(t, state.IsEnabled("corelib"))
	assert.True(t, state.IsEnabled("extras"))
	assert.False(t, state.IsEnabled("other"))
	assert.Equal(t, "core-lib", state.DirFor("CoreLib"))
	assert.Equal(t, "extras", state.DirFor("extras"))
}

func TestLoadHostStateMissingFileMeansNoState(t *testing.T) {
	state, err := LoadHostState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestLoadHostStateMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ "Enabled": `), 0o644))

	_, err := LoadHostState(path)
	require.ErrorIs(t, err, ErrHostStateParse)
}

func TestNilHostStateEnablesEverything(t *testing.T) {
	var state *HostState
	assert.True(t, state.IsEnabled("anything"))
	assert.Equal(t, "anything", state.DirFor("anything"))
}
