package modhost

import (
	"sync"
)

// Registry is the concurrent map of mod runtime records, keyed by
// case-insensitive mod name. Mutation happens only through AddOrReplace,
// which takes the write lock, so concurrent load routines cannot corrupt
// the map; readers take the read lock and never observe a partially
// constructed record.
//
// Each successful add also publishes a commit notification: waiters obtain
// the current broadcast channel via committed() and re-check their
// dependencies when it closes, instead of polling on a timer.
type Registry struct {
	mu     sync.RWMutex
	mods   map[string]*Mod
	commit chan struct{}
}

// NewRegistry creates an empty mod registry.
func NewRegistry() *Registry {
	return &Registry{
		mods:   make(map[string]*Mod),
		commit: make(chan struct{}),
	}
}

// AddOrReplace registers a mod record under its name, replacing any
// previous record for the same name, and wakes all dependency waiters.
func (r *Registry) AddOrReplace(mod *Mod) {
	r.mu.Lock()
	r.mods[ModID{Name: mod.Name()}.Key()] = mod
	notify := r.commit
	r.commit = make(chan struct{})
	r.mu.Unlock()

	close(notify)
}

// AddIfAbsentOrRetryable registers a mod record only when no record exists
// under its name or the existing record's status allows a new load attempt
// to replace it. An Enabled record is never overwritten by a later failed
// or disabled registration; a Disabled record must be re-enabled
// explicitly. Reports whether the record was registered; waiters wake only
// on an actual registration.
func (r *Registry) AddIfAbsentOrRetryable(mod *Mod) bool {
	r.mu.Lock()
	key := ModID{Name: mod.Name()}.Key()
	if existing, ok := r.mods[key]; ok && !existing.Status().Retryable() {
		r.mu.Unlock()
		return false
	}
	r.mods[key] = mod
	notify := r.commit
	r.commit = make(chan struct{})
	r.mu.Unlock()

	close(notify)
	return true
}

// Get looks up a mod by name (case-insensitive).
func (r *Registry) Get(name string) (*Mod, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mod, ok := r.mods[ModID{Name: name}.Key()]
	return mod, ok
}

// Len returns the number of registered mods, including failure records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mods)
}

// Snapshot returns the identities of all mods currently Enabled. The
// dependency resolver runs against this snapshot, so a mod is considered a
// satisfier only once it has fully committed.
func (r *Registry) Snapshot() []ModID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ModID, 0, len(r.mods))
	for _, mod := range r.mods {
		if mod.Status() == StatusEnabled {
			ids = append(ids, mod.Manifest.ID)
		}
	}
	return ids
}

// All returns every registered mod record, including disabled mods and
// failure records, so tooling can enumerate all known mods.
func (r *Registry) All() []*Mod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Mod, 0, len(r.mods))
	for _, mod := range r.mods {
		all = append(all, mod)
	}
	return all
}

// committed returns the channel that closes on the next successful
// AddOrReplace. Callers must re-fetch it after each wakeup.
func (r *Registry) committed() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commit
}
