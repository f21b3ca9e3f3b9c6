package modhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, name, version string) ModID {
	t.Helper()
	id, err := NewModID(name, version)
	require.NoError(t, err)
	return id
}

func mustDep(t *testing.T, name, versions string) ModDependency {
	t.Helper()
	dep, err := NewModDependency(name, versions)
	require.NoError(t, err)
	return dep
}

func TestNewModID(t *testing.T) {
	id, err := NewModID("Example", "1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "Example", id.Name)
	assert.Equal(t, "1.2.3", id.Version.String())

	_, err = NewModID("Example", "not-a-version")
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestModIDEqualIsCaseInsensitiveOnName(t *testing.T) {
	a := mustID(t, "Example", "1.0.0")
	b := mustID(t, "example", "1.0.0")
	c := mustID(t, "example", "1.0.1")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(mustID(t, "other", "1.0.0")))
}

func TestModIDMatches(t *testing.T) {
	tests := []struct {
		name    string
		id      ModID
		dep     ModDependency
		matches bool
	}{
		{
			name:    "inside range",
			id:      mustID(t, "core", "1.4.0"),
			dep:     mustDep(t, "core", ">=1.0.0, <2.0.0"),
			matches: true,
		},
		{
			name:    "outside range",
			id:      mustID(t, "core", "2.1.0"),
			dep:     mustDep(t, "core", ">=1.0.0, <2.0.0"),
			matches: false,
		},
		{
			name:    "name match is case sensitive",
			id:      mustID(t, "Core", "1.4.0"),
			dep:     mustDep(t, "core", ">=1.0.0"),
			matches: false,
		},
		{
			name:    "empty range accepts any version",
			id:      mustID(t, "core", "0.0.1"),
			dep:     mustDep(t, "core", ""),
			matches: true,
		},
		{
			name:    "caret range",
			id:      mustID(t, "core", "1.9.9"),
			dep:     mustDep(t, "core", "^1.2.0"),
			matches: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.id.Matches(tt.dep))
		})
	}
}

func TestNewModDependencyRejectsBadRange(t *testing.T) {
	_, err := NewModDependency("core", "not a range at all (((")
	require.ErrorIs(t, err, ErrInvalidVersionRange)
}
