package modhost

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"Id": { "Name": "example", "Version": "1.2.0" },
		"AssemblyFile": "example.so",
		"HardDeps": [ { "Name": "core", "Versions": ">=1.0.0" } ],
		"SoftDeps": [ { "Name": "extras", "Versions": "^2.0.0" } ]
	}`)

	manifest, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, "example", manifest.ID.Name)
	assert.Equal(t, "1.2.0", manifest.ID.Version.String())
	assert.Equal(t, "example.so", manifest.AssemblyFile)
	assert.True(t, manifest.HasCode())
	require.Len(t, manifest.HardDeps, 1)
	assert.Equal(t, "core", manifest.HardDeps[0].Name)
	require.Len(t, manifest.SoftDeps, 1)
	assert.Equal(t, "extras", manifest.SoftDeps[0].Name)
}

func TestParseManifestToleratesTrailingCommas(t *testing.T) {
	data := []byte(`{
		"Id": { "Name": "example", "Version": "1.0.0", },
		"HardDeps": [
			{ "Name": "core", "Versions": ">=1.0.0", },
		],
	}`)

	manifest, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, "example", manifest.ID.Name)
	assert.False(t, manifest.HasCode())
	require.Len(t, manifest.HardDeps, 1)
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "malformed json",
			data:    `{ "Id": `,
			wantErr: ErrManifestParse,
		},
		{
			name:    "empty name",
			data:    `{ "Id": { "Name": "", "Version": "1.0.0" } }`,
			wantErr: ErrManifestNameEmpty,
		},
		{
			name:    "bad version",
			data:    `{ "Id": { "Name": "x", "Version": "one" } }`,
			wantErr: ErrManifestParse,
		},
		{
			name:    "bad dependency range",
			data:    `{ "Id": { "Name": "x", "Version": "1.0.0" }, "HardDeps": [ { "Name": "y", "Versions": "(((" } ] }`,
			wantErr: ErrManifestParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.data))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	content := `{ "Id": { "Name": "example", "Version": "1.0.0" } }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(content), 0o644))

	manifest, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "example", manifest.ID.Name)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(t.TempDir())
	require.ErrorIs(t, err, ErrManifestMissing)
}
