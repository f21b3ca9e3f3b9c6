package modhost

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"
)

// HostState is the persisted orchestrator state consumed at startup: the
// set of enabled mod names, a mapping from mod name to its on-disk
// directory name for mods whose names don't match their directories, and
// the flag controlling whether disabled mods are still loaded (as Disabled
// records) rather than skipped entirely.
type HostState struct {
	Enabled      []string          `json:"Enabled"`
	DirOverrides map[string]string `json:"DirOverrides"`
	LoadDisabled bool              `json:"LoadDisabled"`
}

// LoadHostState reads a host state file. The parser is as tolerant as the
// manifest parser. A missing file yields a nil state, which enables
// everything.
func LoadHostState(path string) (*HostState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrHostStateParse, path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHostStateParse, path, err)
	}
	var state HostState
	if err := json.Unmarshal(std, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHostStateParse, path, err)
	}
	return &state, nil
}

// IsEnabled reports whether a mod name is in the enabled set,
// case-insensitively. A nil state enables everything.
func (s *HostState) IsEnabled(name string) bool {
	if s == nil {
		return true
	}
	for _, enabled := range s.Enabled {
		if strings.EqualFold(enabled, name) {
			return true
		}
	}
	return false
}

// DirFor returns the on-disk directory name for a mod, falling back to the
// mod name itself when no override is recorded.
func (s *HostState) DirFor(name string) string {
	if s == nil {
		return name
	}
	if dir, ok := s.DirOverrides[name]; ok {
		return dir
	}
	return name
}
