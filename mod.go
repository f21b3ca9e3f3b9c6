package modhost

import (
	"fmt"
	"sync"
)

// ModStatus tracks a mod's lifecycle state. A status is terminal once
// reached except through the explicit transitions below:
//
//	(none)       -> StatusEnabled   successful load
//	(none)       -> StatusFailed    manifest or dependency failure
//	StatusFailed -> StatusEnabled   explicit retry of the load
//	StatusEnabled -> StatusEnabled  successful code reload
//
// Enabled -> Disabled is an administrative action performed by the host,
// not by the engine.
type ModStatus int

const (
	// StatusDisabled marks a mod that is known but intentionally not
	// loaded.
	StatusDisabled ModStatus = iota

	// StatusEnabled marks a mod that loaded successfully and is
	// operating. It is the only state a reload may start from.
	StatusEnabled

	// StatusFailed marks a mod whose load attempt failed; the record
	// carries the failure cause.
	StatusFailed
)

// String returns the status name. Unknown values are programming errors
// and panic rather than being absorbed.
func (s ModStatus) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusEnabled:
		return "enabled"
	case StatusFailed:
		return "failed"
	default:
		panic(fmt.Sprintf("%v: %d", ErrInvalidModStatus, int(s)))
	}
}

// Retryable reports whether a new load attempt may replace a registered
// mod in this status. Only failed records are retryable; disabled mods
// must be re-enabled explicitly and enabled mods are never overwritten.
func (s ModStatus) Retryable() bool {
	return s == StatusFailed
}

// ContentKind flags which capability classes a mod actually contributes.
type ContentKind uint8

const (
	ContentResources ContentKind = 1 << iota
	ContentCode
)

// ContentNone marks a mod that contributes neither resources nor code.
const ContentNone ContentKind = 0

// Has reports whether all flags in kind are set.
func (c ContentKind) Has(kind ContentKind) bool {
	return c&kind == kind
}

// Mod is the runtime record for a single mod. It owns the parsed manifest,
// the mutable status, the content flags and, for code-bearing mods, the
// mod's single code unit. The record is exclusively owned by its registry
// entry; the code unit is exclusively owned by the mod.
type Mod struct {
	Manifest *ModManifest
	Dir      string

	mu      sync.Mutex
	status  ModStatus
	err     error
	content ContentKind
	unit    *CodeUnit
	watcher *artifactWatcher
}

// newFailedMod materializes a failure record keyed by the best-known name,
// so tooling can enumerate failed mods through the same registry.
func newFailedMod(name, dir string, cause error) *Mod {
	return &Mod{
		Manifest: &ModManifest{ID: ModID{Name: name}},
		Dir:      dir,
		status:   StatusFailed,
		err:      cause,
	}
}

// Name returns the mod's declared name, or its directory-derived name for
// failure records whose manifest never parsed.
func (m *Mod) Name() string {
	return m.Manifest.ID.Name
}

// Status returns the mod's current lifecycle status.
func (m *Mod) Status() ModStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the failure cause for a StatusFailed mod, nil otherwise.
func (m *Mod) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Content returns the capability classes this mod contributes.
func (m *Mod) Content() ContentKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// Unit returns the mod's code unit, or nil for mods without code.
func (m *Mod) Unit() *CodeUnit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unit
}

func (m *Mod) setEnabled(content ContentKind, unit *CodeUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusEnabled
	m.err = nil
	m.content = content
	m.unit = unit
}

func (m *Mod) setDisabled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusDisabled
}

func (m *Mod) swapUnit(unit *CodeUnit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unit = unit
}

func (m *Mod) setWatcher(w *artifactWatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watcher = w
}

func (m *Mod) getWatcher() *artifactWatcher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watcher
}
