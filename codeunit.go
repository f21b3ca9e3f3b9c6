package modhost

import (
	"context"
	"fmt"
	"plugin"
	"sync"
)

// CodeHost locates the entry-point constructors inside a mod's compiled
// code artifact. Two implementations are provided: StaticCodeHost for
// hosts that compile mod code in and register it explicitly, and
// PluginCodeHost for artifacts loaded through the Go plugin mechanism.
type CodeHost interface {
	// Open resolves the artifact at path and returns the entry
	// constructors it exposes. Open does not construct or start anything;
	// that is the code unit's job.
	Open(path string) (*CodeArtifact, error)
}

// CodeArtifact is a resolved code artifact and the entry constructors
// found inside it. A well-formed artifact exposes exactly one.
type CodeArtifact struct {
	Path    string
	entries []EntryFunc
}

// StaticCodeHost is a CodeHost backed by explicit registration: the host
// application binds artifact paths to entry constructors up front, the way
// database drivers register themselves. It is also the natural host for
// tests.
type StaticCodeHost struct {
	mu      sync.RWMutex
	entries map[string][]EntryFunc
}

// NewStaticCodeHost creates an empty registration-based code host.
func NewStaticCodeHost() *StaticCodeHost {
	return &StaticCodeHost{entries: make(map[string][]EntryFunc)}
}

// Register binds an entry constructor to an artifact path. Registering a
// second constructor for the same path makes the artifact ambiguous, which
// the code unit loader rejects at load time.
func (h *StaticCodeHost) Register(path string, entry EntryFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[path] = append(h.entries[path], entry)
}

// Open returns the constructors registered for path.
func (h *StaticCodeHost) Open(path string) (*CodeArtifact, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entries, ok := h.entries[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
	}
	return &CodeArtifact{Path: path, entries: entries}, nil
}

// PluginEntrySymbol is the well-known exported symbol a plugin artifact
// must provide: a variable of type modhost.EntryFunc (or a plain
// func() modhost.ModEntry).
const PluginEntrySymbol = "ModEntry"

// PluginCodeHost loads code artifacts with the Go plugin mechanism and
// looks up the well-known entry symbol by name, avoiding any runtime type
// scanning.
type PluginCodeHost struct{}

// Open loads the plugin at path and resolves its entry symbol.
func (PluginCodeHost) Open(path string) (*CodeArtifact, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, path, err)
	}
	sym, err := p.Lookup(PluginEntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEntryPointMissing, path, err)
	}

	var entry EntryFunc
	switch fn := sym.(type) {
	case *EntryFunc:
		entry = *fn
	case func() ModEntry:
		entry = fn
	default:
		return nil, fmt.Errorf("%w: %s: symbol %s has type %T", ErrEntryPointMissing, path, PluginEntrySymbol, sym)
	}
	return &CodeArtifact{Path: path, entries: []EntryFunc{entry}}, nil
}

// CodeUnit is a mod's isolated, independently unloadable loaded-code
// context. Each code-bearing mod owns exactly one at a time; the unit holds
// the only owning reference to the live entry point, so Unload is a
// synchronous, deterministic destruction step rather than a wait on
// collector cooperation.
type CodeUnit struct {
	mu       sync.Mutex
	artifact string
	entry    ModEntry
	loaded   bool
}

// loadCodeUnit opens the artifact, requires exactly one entry constructor,
// constructs the entry and starts it.
func loadCodeUnit(ctx context.Context, host CodeHost, path string) (*CodeUnit, error) {
	artifact, err := host.Open(path)
	if err != nil {
		return nil, err
	}
	switch len(artifact.entries) {
	case 1:
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrEntryPointMissing, path)
	default:
		return nil, fmt.Errorf("%w: %s: found %d", ErrEntryPointAmbiguous, path, len(artifact.entries))
	}

	entry := artifact.entries[0]()
	if err := entry.Startup(ctx); err != nil {
		return nil, fmt.Errorf("mod entry startup failed: %w", err)
	}
	return &CodeUnit{artifact: path, entry: entry, loaded: true}, nil
}

// Artifact returns the path of the artifact this unit was loaded from.
func (u *CodeUnit) Artifact() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.artifact
}

// Loaded reports whether the unit still holds a live entry point.
func (u *CodeUnit) Loaded() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loaded
}

// Entry returns the live entry point, or nil after Unload.
func (u *CodeUnit) Entry() ModEntry {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.entry
}

// Unload shuts the entry point down, releasing every hook and patch it
// installed, then drops the unit's owning reference. The unit is dead when
// Unload returns; there is nothing to poll for.
func (u *CodeUnit) Unload(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.loaded {
		return fmt.Errorf("%w: %s", ErrUnitNotLoaded, u.artifact)
	}
	if err := u.entry.Shutdown(ctx); err != nil {
		return fmt.Errorf("mod entry shutdown failed: %w", err)
	}
	u.entry = nil
	u.loaded = false
	return nil
}
