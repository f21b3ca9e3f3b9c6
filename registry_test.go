package modhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledMod(t *testing.T, name, version string) *Mod {
	t.Helper()
	mod := &Mod{Manifest: &ModManifest{ID: mustID(t, name, version)}}
	mod.setEnabled(ContentNone, nil)
	return mod
}

func TestRegistryAddAndGetCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.AddOrReplace(enabledMod(t, "Example", "1.0.0"))

	mod, ok := r.Get("example")
	require.True(t, ok)
	assert.Equal(t, "Example", mod.Name())

	mod, ok = r.Get("EXAMPLE")
	require.True(t, ok)
	assert.Equal(t, "Example", mod.Name())

	_, ok = r.Get("other")
	assert.False(t, ok)
}

func TestRegistryReplaceKeepsOneEntryPerName(t *testing.T) {
	r := NewRegistry()
	r.AddOrReplace(newFailedMod("example", "mods/example", ErrManifestMissing))
	r.AddOrReplace(enabledMod(t, "example", "2.0.0"))

	assert.Equal(t, 1, r.Len())
	mod, ok := r.Get("example")
	require.True(t, ok)
	assert.Equal(t, StatusEnabled, mod.Status())
}

func TestRegistryGuardedAddNeverDemotesEnabled(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.AddIfAbsentOrRetryable(newFailedMod("example", "mods/example", ErrManifestParse)))

	// A failed record is retryable and may be replaced by a committed one.
	require.True(t, r.AddIfAbsentOrRetryable(enabledMod(t, "example", "1.0.0")))

	// An Enabled record outranks any later failed or disabled registration.
	require.False(t, r.AddIfAbsentOrRetryable(newFailedMod("example", "mods/example", ErrManifestParse)))
	disabled := &Mod{Manifest: &ModManifest{ID: mustID(t, "example", "1.0.0")}}
	disabled.setDisabled()
	require.False(t, r.AddIfAbsentOrRetryable(disabled))

	mod, ok := r.Get("example")
	require.True(t, ok)
	assert.Equal(t, StatusEnabled, mod.Status())
	assert.NoError(t, mod.Err())
	assert.Equal(t, 1, r.Len())
}

func TestRegistrySnapshotOnlyEnabled(t *testing.T) {
	r := NewRegistry()
	r.AddOrReplace(enabledMod(t, "loaded", "1.0.0"))
	r.AddOrReplace(newFailedMod("broken", "mods/broken", ErrManifestParse))

	disabled := &Mod{Manifest: &ModManifest{ID: mustID(t, "off", "1.0.0")}}
	disabled.setDisabled()
	r.AddOrReplace(disabled)

	snapshot := r.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "loaded", snapshot[0].Name)
	assert.Len(t, r.All(), 3)
}

func TestRegistryCommitNotification(t *testing.T) {
	r := NewRegistry()
	commit := r.committed()

	select {
	case <-commit:
		t.Fatal("commit channel closed before any add")
	default:
	}

	done := make(chan struct{})
	go func() {
		<-commit
		close(done)
	}()

	r.AddOrReplace(enabledMod(t, "example", "1.0.0"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken by commit")
	}

	// Each commit installs a fresh channel for the next wait.
	next := r.committed()
	select {
	case <-next:
		t.Fatal("fresh commit channel already closed")
	default:
	}
}
