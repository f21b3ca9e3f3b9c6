package modhost

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// HostConfig tunes the engine's scheduling behavior. Values can come from
// defaults, the environment (MODHOST_ prefix) or functional options, in
// that order of precedence.
type HostConfig struct {
	// WakeInterval is the bounded idle timeout of a dependency waiter:
	// how long a load routine sleeps between re-checks when no commit
	// notification arrives.
	WakeInterval time.Duration `env:"WAKE_INTERVAL" envDefault:"1ms"`

	// WatchdogInterval is the fixed interval between watchdog checks of
	// the batch counters.
	WatchdogInterval time.Duration `env:"WATCHDOG_INTERVAL" envDefault:"5ms"`

	// StallThreshold is the number of consecutive stalled watchdog checks
	// before the force-skip signal fires. The multi-check debounce absorbs
	// checks that run before a just-finished mod updates the counter.
	StallThreshold int `env:"STALL_THRESHOLD" envDefault:"3"`

	// HotReload globally enables the artifact watcher and ReloadCode.
	HotReload bool `env:"HOT_RELOAD" envDefault:"true"`

	// StatePath is the optional persisted host state file consumed by
	// LoadAll. Empty means no persisted state.
	StatePath string `env:"STATE_PATH"`
}

// DefaultHostConfig returns the built-in tuning values.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		WakeInterval:     time.Millisecond,
		WatchdogInterval: 5 * time.Millisecond,
		StallThreshold:   3,
		HotReload:        true,
	}
}

// HostConfigFromEnv builds a HostConfig from MODHOST_* environment
// variables, falling back to the defaults for unset values.
func HostConfigFromEnv() (HostConfig, error) {
	var cfg HostConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "MODHOST_"}); err != nil {
		return HostConfig{}, fmt.Errorf("parse host config from environment: %w", err)
	}
	return cfg, nil
}

// normalize clamps nonsensical values back to the defaults.
func (c HostConfig) normalize() HostConfig {
	def := DefaultHostConfig()
	if c.WakeInterval <= 0 {
		c.WakeInterval = def.WakeInterval
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = def.WatchdogInterval
	}
	if c.StallThreshold <= 0 {
		c.StallThreshold = def.StallThreshold
	}
	return c
}
