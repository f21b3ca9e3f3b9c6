package modhost

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ModHost is the load orchestrator: it discovers mod directories, parses
// manifests, drives dependency-gated loading of many mods concurrently,
// runs the batch watchdog, and exposes the reload and retry entry points.
//
// A ModHost owns its registry and lifecycle counters, so multiple
// independent hosts can coexist in one process. All per-mod failures are
// contained as StatusFailed registry records; structural errors and
// entry-point packaging errors are pushed onto the task queue and re-raised
// when the host drains it.
type ModHost struct {
	cfg      HostConfig
	logger   Logger
	registry *Registry
	queue    TaskQueue
	codeHost CodeHost
	binder   ResourceBinder
	state    *HostState

	// Lifecycle counters. loadedCount counts settled routines: committed
	// mods and registered failure records both advance it, which is what
	// lets a batch with contained failures terminate.
	totalRequested atomic.Int64
	loadedCount    atomic.Int64
	waitingCount   atomic.Int64

	batchMu sync.Mutex
	wg      sync.WaitGroup

	observerMu sync.RWMutex
	observers  map[string]*observerRegistration

	initialized bool
}

// observerRegistration tracks one registered observer and its event filter.
type observerRegistration struct {
	observer     Observer
	eventTypes   map[string]bool
	registeredAt time.Time
}

// batch coordinates one LoadBatch call: its load routines share a single
// force-skip signal owned by the batch's watchdog.
type batch struct {
	forceSkip chan struct{}
	forceOnce sync.Once
}

func (b *batch) force() {
	b.forceOnce.Do(func() { close(b.forceSkip) })
}

func (b *batch) forced() bool {
	select {
	case <-b.forceSkip:
		return true
	default:
		return false
	}
}

// NewModHost creates a mod host. The logger is required; everything else
// defaults: fresh registry, SerialQueue, empty StaticCodeHost, built-in
// tuning values.
func NewModHost(logger Logger, opts ...Option) (*ModHost, error) {
	if logger == nil {
		return nil, ErrLoggerNil
	}
	h := &ModHost{
		cfg:         DefaultHostConfig(),
		logger:      logger,
		registry:    NewRegistry(),
		queue:       NewSerialQueue(),
		codeHost:    NewStaticCodeHost(),
		observers:   make(map[string]*observerRegistration),
		initialized: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Registry exposes the host's mod registry for enumeration and lookup.
func (h *ModHost) Registry() *Registry {
	return h.registry
}

// Counters returns the current lifecycle counters: total requested, loaded
// (settled) and waiting. The invariant 0 <= waiting+loaded <= total holds
// at all times; a batch is in progress while loaded != total.
func (h *ModHost) Counters() (total, loaded, waiting int64) {
	return h.totalRequested.Load(), h.loadedCount.Load(), h.waitingCount.Load()
}

// LoadAll enumerates the immediate subdirectories of root, each assumed to
// be one mod package, applies the persisted host state (enabled set,
// directory overrides, load-disabled flag) and hands the enabled
// directories to LoadBatch.
func (h *ModHost) LoadAll(ctx context.Context, root string) error {
	if err := h.ensureInit(); err != nil {
		return err
	}

	if h.state == nil && h.cfg.StatePath != "" {
		state, err := LoadHostState(h.cfg.StatePath)
		if err != nil {
			return err
		}
		h.state = state
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("enumerate mod directories: %w", err)
	}

	// Resolve the enabled mod names to directory names up front, so an
	// enabled mod whose directory carries an override is still picked up.
	enabledDirs := make(map[string]bool)
	if h.state != nil {
		for _, name := range h.state.Enabled {
			enabledDirs[strings.ToLower(h.state.DirFor(name))] = true
		}
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if h.state == nil || enabledDirs[strings.ToLower(entry.Name())] {
			dirs = append(dirs, dir)
			continue
		}
		if h.state != nil && h.state.LoadDisabled {
			h.registerDisabled(ctx, dir)
		} else {
			h.logger.Debug("Skipping disabled mod directory", "dir", dir)
		}
	}
	return h.LoadBatch(ctx, dirs)
}

// LoadBatch spawns one independent load routine per mod directory plus
// exactly one watchdog routine for the batch. An empty input is a no-op.
// The call returns immediately; Wait blocks until the batch settles and the
// task queue carries any deferred failures.
func (h *ModHost) LoadBatch(ctx context.Context, dirs []string) error {
	if err := h.ensureInit(); err != nil {
		return err
	}
	if len(dirs) == 0 {
		return nil
	}

	h.batchMu.Lock()
	// Counters reset only when no batch is in progress, so overlapping
	// batches share one accounting window.
	if h.loadedCount.Load() == h.totalRequested.Load() && h.waitingCount.Load() == 0 {
		h.totalRequested.Store(0)
		h.loadedCount.Store(0)
	}
	h.totalRequested.Add(int64(len(dirs)))
	h.batchMu.Unlock()

	b := &batch{forceSkip: make(chan struct{})}
	h.emit(ctx, NewModEvent(EventTypeBatchStarted, map[string]any{"size": len(dirs)}))
	h.logger.Info("Loading mod batch", "size", len(dirs))

	for _, dir := range dirs {
		h.wg.Add(1)
		go func(dir string) {
			defer h.wg.Done()
			h.loadMod(ctx, dir, b)
		}(dir)
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.watchdog(ctx, b)
	}()
	return nil
}

// Wait blocks until every outstanding load routine and watchdog has
// finished.
func (h *ModHost) Wait() {
	h.wg.Wait()
}

// Close tears down the artifact watchers of all loaded mods. Loaded code
// units stay live; unloading them remains the host application's call.
func (h *ModHost) Close() {
	for _, mod := range h.registry.All() {
		if w := mod.getWatcher(); w != nil {
			w.close()
			mod.setWatcher(nil)
		}
	}
}

// loadMod is the per-mod load routine: parse, duplicate check, readiness
// check, dependency wait, materialize, commit.
func (h *ModHost) loadMod(ctx context.Context, dir string, b *batch) {
	manifest, err := LoadManifest(dir)
	if err != nil {
		h.registerFailure(ctx, filepath.Base(dir), dir, err)
		return
	}
	name := manifest.ID.Name

	if existing, ok := h.registry.Get(name); ok {
		switch status := existing.Status(); status {
		case StatusDisabled:
			h.logger.Warn("Mod is disabled and must be re-enabled explicitly, not overwritten", "mod", name, "dir", dir)
			h.settle()
			return
		case StatusEnabled:
			h.settle()
			return
		case StatusFailed:
			// Overwrite-on-retry.
			h.logger.Info("Retrying previously failed mod", "mod", name, "dir", dir)
			h.emit(ctx, NewModEvent(EventTypeModRetried, map[string]any{"mod": name}))
		default:
			h.settle()
			h.queue.Fail(fmt.Errorf("%w: mod %s has status %d", ErrInvalidModStatus, name, int(status)))
			return
		}
	}

	pending := &pendingDeps{hard: manifest.HardDeps, soft: manifest.SoftDeps}
	if !pending.check(h.registry.Snapshot()) {
		if !h.awaitDeps(ctx, name, dir, pending, b) {
			return
		}
	}

	h.materialize(ctx, manifest, dir)
}

// awaitDeps blocks the load routine until both dependency lists drain or
// the watchdog forces a skip. It returns false when the mod resolved to a
// hard failure and has already been registered.
//
// Waiters wake on registry commit notifications, on the force-skip signal,
// or on a bounded idle timeout; there is no busy polling.
func (h *ModHost) awaitDeps(ctx context.Context, name, dir string, pending *pendingDeps, b *batch) bool {
	// The waiting counter must drop before the routine settles, so the
	// invariant waiting+loaded <= total holds even mid-transition.
	h.waitingCount.Add(1)

	h.logger.Debug("Waiting on dependencies", "mod", name,
		"hard", dependencyNames(pending.hard), "soft", dependencyNames(pending.soft))

	idle := time.NewTimer(h.cfg.WakeInterval)
	defer idle.Stop()

	for {
		commit := h.registry.committed()
		select {
		case <-commit:
		case <-idle.C:
		case <-b.forceSkip:
			h.waitingCount.Add(-1)
			if pending.check(h.registry.Snapshot()) {
				return true
			}
			if len(pending.hard) > 0 {
				cause := fmt.Errorf("%w: %s", ErrHardDepsUnmet, dependencyNames(pending.hard))
				h.registerFailure(ctx, name, dir, cause)
				return false
			}
			h.logger.Warn("Proceeding without soft dependencies", "mod", name,
				"unmet", dependencyNames(pending.soft))
			return true
		}
		if pending.check(h.registry.Snapshot()) {
			h.waitingCount.Add(-1)
			return true
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(h.cfg.WakeInterval)
	}
}

// materialize builds the Mod record, binds resource content and the code
// unit, and commits the mod to the registry as Enabled.
func (h *ModHost) materialize(ctx context.Context, manifest *ModManifest, dir string) {
	name := manifest.ID.Name
	mod := &Mod{Manifest: manifest, Dir: dir}
	content := ContentNone

	resourceDir := filepath.Join(dir, ResourceDirName)
	if info, err := os.Stat(resourceDir); err == nil && info.IsDir() {
		if h.binder != nil {
			if err := h.binder(name, resourceDir); err != nil {
				h.logger.Error("Resource registration failed", "mod", name, "dir", resourceDir, "error", err)
			} else {
				content |= ContentResources
			}
		} else {
			content |= ContentResources
		}
	}

	var unit *CodeUnit
	if manifest.HasCode() {
		artifact := filepath.Join(dir, manifest.AssemblyFile)
		var err error
		unit, err = loadCodeUnit(ctx, h.codeHost, artifact)
		if err != nil {
			// Packaging bugs in the mod itself; surfaced through the
			// task queue as well as the failure record, and not retried
			// automatically.
			h.registerFailure(ctx, name, dir, err)
			h.queue.Fail(fmt.Errorf("mod %s: %w", name, err))
			return
		}
		content |= ContentCode
	}

	mod.setEnabled(content, unit)
	h.registry.AddOrReplace(mod)
	h.loadedCount.Add(1)

	if unit != nil && h.cfg.HotReload {
		h.armWatcher(mod, unit.Artifact())
	}

	h.emit(ctx, NewModEvent(EventTypeModLoaded, map[string]any{
		"mod": name, "version": manifest.ID.Version.String(), "content": int(content),
	}))
	h.logger.Info("Mod loaded", "mod", name, "version", manifest.ID.Version.String())
}

// armWatcher attaches the hot-reload artifact watcher to a freshly loaded
// mod. Reload requests run on the host's task queue, not on the watcher
// goroutine.
func (h *ModHost) armWatcher(mod *Mod, artifact string) {
	name := mod.Name()
	watcher, err := newArtifactWatcher(artifact, h.logger, func() {
		h.queue.Submit(func() {
			if err := h.ReloadCode(context.Background(), name); err != nil {
				h.queue.Fail(fmt.Errorf("hot reload of mod %s: %w", name, err))
			}
		})
	})
	if err != nil {
		h.logger.Error("Failed to watch code artifact, hot reload unavailable", "mod", name, "artifact", artifact, "error", err)
		return
	}
	mod.setWatcher(watcher)
}

// registerFailure materializes a StatusFailed record under the best-known
// name so tooling can enumerate failures through the registry, and settles
// the routine's slot in the batch accounting. A record that already reached
// Enabled outranks the failed attempt and is kept untouched, so a corrupted
// resubmission can never demote a committed mod.
func (h *ModHost) registerFailure(ctx context.Context, name, dir string, cause error) {
	if !h.registry.AddIfAbsentOrRetryable(newFailedMod(name, dir, cause)) {
		h.settle()
		h.logger.Warn("Load attempt failed, keeping existing mod record", "mod", name, "dir", dir, "error", cause)
		return
	}
	h.settle()
	h.emit(ctx, NewModEvent(EventTypeModFailed, map[string]any{"mod": name, "cause": cause.Error()}))
	h.logger.Error("Mod failed to load", "mod", name, "dir", dir, "error", cause)
}

// registerDisabled records a mod that persisted state keeps disabled. An
// existing Enabled or Disabled record is kept, so a repeated LoadAll cannot
// demote a running mod or re-announce a known disabled one.
func (h *ModHost) registerDisabled(ctx context.Context, dir string) {
	name := filepath.Base(dir)
	mod := newFailedMod(name, dir, nil)
	if manifest, err := LoadManifest(dir); err == nil {
		mod = &Mod{Manifest: manifest, Dir: dir}
		name = manifest.ID.Name
	}
	mod.setDisabled()
	if !h.registry.AddIfAbsentOrRetryable(mod) {
		h.logger.Debug("Mod already registered, keeping existing record", "mod", name, "dir", dir)
		return
	}
	h.emit(ctx, NewModEvent(EventTypeModDisabled, map[string]any{"mod": name}))
	h.logger.Info("Mod registered as disabled", "mod", name, "dir", dir)
}

// settle advances the loaded counter for a routine that finished without
// committing an enabled mod, keeping batch termination honest.
func (h *ModHost) settle() {
	h.loadedCount.Add(1)
}

// watchdog is the stuck-loop breaker: one per batch, it watches the shared
// counters on a fixed interval and fires the force-skip signal after the
// configured number of consecutive stalled checks. A check that happens to
// run before a just-finished mod updates the counter must not be mistaken
// for a true deadlock; the debounce absorbs that race at the cost of a few
// intervals of latency.
func (h *ModHost) watchdog(ctx context.Context, b *batch) {
	ticker := time.NewTicker(h.cfg.WatchdogInterval)
	defer ticker.Stop()

	stall := 0
	lastLoaded := h.loadedCount.Load()

	for range ticker.C {
		loaded := h.loadedCount.Load()
		total := h.totalRequested.Load()

		if loaded == total {
			h.emit(ctx, NewModEvent(EventTypeBatchSettled, map[string]any{"loaded": loaded}))
			h.logger.Debug("Mod batch settled", "loaded", loaded, "total", total)
			return
		}
		if loaded != lastLoaded {
			stall = 0
			lastLoaded = loaded
			continue
		}
		if b.forced() {
			continue
		}
		if h.waitingCount.Load()+loaded == total {
			stall++
			h.logger.Debug("Watchdog stall check", "stall", stall, "loaded", loaded, "waiting", h.waitingCount.Load())
			if stall >= h.cfg.StallThreshold {
				h.logger.Warn("Watchdog forcing skip of stalled dependency waits", "loaded", loaded, "total", total)
				h.emit(ctx, NewModEvent(EventTypeBatchForced, map[string]any{"loaded": loaded, "total": total}))
				b.force()
			}
		}
	}
}

// ReloadCode tears down and rebuilds the code unit of an enabled mod while
// leaving its registry entry and Enabled status intact. It is a warned
// no-op when hot reload is globally disabled or the mod has no code. The
// loaded counter transiently dips while the mod is between units.
//
// A reload whose fresh load fails leaves the mod Enabled without a live
// unit and rearms the artifact watcher, so a later ReloadCode (triggered
// by the next artifact rebuild or called directly) retries the load and
// heals the mod.
func (h *ModHost) ReloadCode(ctx context.Context, name string) error {
	if err := h.ensureInit(); err != nil {
		return err
	}
	if !h.cfg.HotReload {
		h.logger.Warn("Hot reload is disabled, ignoring reload request", "mod", name)
		return nil
	}

	mod, ok := h.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModNotFound, name)
	}
	if !mod.Content().Has(ContentCode) {
		h.logger.Warn("Mod has no code to reload", "mod", name)
		return nil
	}
	if status := mod.Status(); status != StatusEnabled {
		return fmt.Errorf("%w: %s is %s", ErrModNotEnabled, name, status)
	}
	// A nil unit means an earlier reload lost the race with a bad artifact;
	// this attempt skips the teardown and just loads fresh.
	unit := mod.Unit()
	if unit != nil && !unit.Loaded() {
		return fmt.Errorf("%w: %s", ErrUnitNotLoaded, name)
	}
	artifact := filepath.Join(mod.Dir, mod.Manifest.AssemblyFile)
	if unit != nil {
		artifact = unit.Artifact()
	}

	h.emit(ctx, NewModEvent(EventTypeReloadStarted, map[string]any{"mod": name}))
	h.logger.Info("Reloading mod code", "mod", name, "artifact", artifact)

	// The mod is transiently not loaded while between units.
	h.loadedCount.Add(-1)
	defer h.loadedCount.Add(1)

	if unit != nil {
		if err := unit.Unload(ctx); err != nil {
			h.emit(ctx, NewModEvent(EventTypeReloadFailed, map[string]any{"mod": name, "cause": err.Error()}))
			return fmt.Errorf("reload of mod %s: %w", name, err)
		}
	}

	fresh, err := loadCodeUnit(ctx, h.codeHost, artifact)
	if err != nil {
		mod.swapUnit(nil)
		if w := mod.getWatcher(); w != nil {
			w.rearm()
		}
		h.emit(ctx, NewModEvent(EventTypeReloadFailed, map[string]any{"mod": name, "cause": err.Error()}))
		h.logger.Error("Reload failed, mod left without a code unit until the next attempt", "mod", name, "error", err)
		return fmt.Errorf("reload of mod %s: %w", name, err)
	}
	mod.swapUnit(fresh)

	if w := mod.getWatcher(); w != nil {
		w.rearm()
	}
	h.emit(ctx, NewModEvent(EventTypeReloadCompleted, map[string]any{"mod": name}))
	h.logger.Info("Mod code reloaded", "mod", name)
	return nil
}

// RetryFailed re-runs the load of a mod currently in StatusFailed. This is
// the explicit, named retry transition; any other status is rejected.
func (h *ModHost) RetryFailed(ctx context.Context, name string) error {
	if err := h.ensureInit(); err != nil {
		return err
	}
	mod, ok := h.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModNotFound, name)
	}
	if !mod.Status().Retryable() {
		return fmt.Errorf("%w: %s is %s", ErrModNotFailed, name, mod.Status())
	}
	return h.LoadBatch(ctx, []string{mod.Dir})
}

func (h *ModHost) ensureInit() error {
	if h == nil || !h.initialized {
		return ErrHostNotInitialized
	}
	return nil
}

// RegisterObserver adds an observer, optionally filtered by event type.
func (h *ModHost) RegisterObserver(observer Observer, eventTypes ...string) error {
	h.observerMu.Lock()
	defer h.observerMu.Unlock()

	filter := make(map[string]bool, len(eventTypes))
	for _, eventType := range eventTypes {
		filter[eventType] = true
	}
	h.observers[observer.ObserverID()] = &observerRegistration{
		observer:     observer,
		eventTypes:   filter,
		registeredAt: time.Now(),
	}
	h.logger.Debug("Observer registered", "observerID", observer.ObserverID(), "eventTypes", eventTypes)
	return nil
}

// UnregisterObserver removes an observer. Idempotent.
func (h *ModHost) UnregisterObserver(observer Observer) error {
	h.observerMu.Lock()
	defer h.observerMu.Unlock()
	delete(h.observers, observer.ObserverID())
	return nil
}

// NotifyObservers delivers an event to all interested observers on the
// calling goroutine. Observer errors are logged, never propagated.
func (h *ModHost) NotifyObservers(ctx context.Context, event CloudEvent) error {
	h.observerMu.RLock()
	defer h.observerMu.RUnlock()

	for _, reg := range h.observers {
		if len(reg.eventTypes) > 0 && !reg.eventTypes[event.Type()] {
			continue
		}
		if err := reg.observer.OnEvent(ctx, event); err != nil {
			h.logger.Error("Observer failed to handle event", "observerID", reg.observer.ObserverID(), "eventType", event.Type(), "error", err)
		}
	}
	return nil
}

func (h *ModHost) emit(ctx context.Context, event CloudEvent) {
	if err := h.NotifyObservers(ctx, event); err != nil {
		h.logger.Error("Failed to notify observers", "eventType", event.Type(), "error", err)
	}
}
