package modhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModStatusString(t *testing.T) {
	assert.Equal(t, "disabled", StatusDisabled.String())
	assert.Equal(t, "enabled", StatusEnabled.String())
	assert.Equal(t, "failed", StatusFailed.String())

	assert.Panics(t, func() {
		_ = ModStatus(42).String()
	}, "unknown status values are programming errors")
}

func TestModStatusRetryable(t *testing.T) {
	assert.False(t, StatusDisabled.Retryable())
	assert.False(t, StatusEnabled.Retryable())
	assert.True(t, StatusFailed.Retryable())
}

func TestContentKindFlags(t *testing.T) {
	assert.True(t, ContentNone.Has(ContentNone))
	assert.False(t, ContentNone.Has(ContentCode))

	both := ContentResources | ContentCode
	assert.True(t, both.Has(ContentResources))
	assert.True(t, both.Has(ContentCode))
	assert.True(t, both.Has(ContentResources|ContentCode))
	assert.False(t, ContentResources.Has(ContentCode))
}

func TestFailedModRecord(t *testing.T) {
	mod := newFailedMod("broken", "mods/broken", ErrManifestParse)
	assert.Equal(t, "broken", mod.Name())
	assert.Equal(t, StatusFailed, mod.Status())
	require.ErrorIs(t, mod.Err(), ErrManifestParse)
	assert.Equal(t, ContentNone, mod.Content())
	assert.Nil(t, mod.Unit())
}
