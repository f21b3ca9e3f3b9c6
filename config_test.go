package modhost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHostConfig(t *testing.T) {
	cfg := DefaultHostConfig()
	assert.Equal(t, time.Millisecond, cfg.WakeInterval)
	assert.Equal(t, 5*time.Millisecond, cfg.WatchdogInterval)
	assert.Equal(t, 3, cfg.StallThreshold)
	assert.True(t, cfg.HotReload)
}

func TestHostConfigFromEnv(t *testing.T) {
	t.Setenv("MODHOST_WAKE_INTERVAL", "2ms")
	t.Setenv("MODHOST_STALL_THRESHOLD", "7")
	t.Setenv("MODHOST_HOT_RELOAD", "false")
	t.Setenv("MODHOST_STATE_PATH", "/tmp/host.json")

	cfg, err := HostConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, cfg.WakeInterval)
	assert.Equal(t, 5*time.Millisecond, cfg.WatchdogInterval)
	assert.Equal(t, 7, cfg.StallThreshold)
	assert.False(t, cfg.HotReload)
	assert.Equal(t, "/tmp/host.json", cfg.StatePath)
}

func TestHostConfigNormalizeClampsZeroes(t *testing.T) {
	cfg := HostConfig{}.normalize()
	def := DefaultHostConfig()
	assert.Equal(t, def.WakeInterval, cfg.WakeInterval)
	assert.Equal(t, def.WatchdogInterval, cfg.WatchdogInterval)
	assert.Equal(t, def.StallThreshold, cfg.StallThreshold)
}
