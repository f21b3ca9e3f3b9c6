// Package modhost provides a mod loading and lifecycle engine for Go host
// applications. It discovers mod packages on disk, resolves their declared
// inter-dependencies, loads their code into isolated, independently
// unloadable code units, tracks per-mod status, and supports tearing down
// and hot-reloading a mod's code without restarting the host process.
//
// The engine is embedded by a host application: the host constructs a
// ModHost, points it at a directory of mod packages, and drains the host's
// task queue once per frame to observe deferred work and failures.
//
// Basic usage:
//
//	queue := modhost.NewSerialQueue()
//	host, err := modhost.NewModHost(logger, modhost.WithTaskQueue(queue))
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := host.LoadAll(ctx, "mods"); err != nil {
//		log.Fatal(err)
//	}
//	host.Wait()
//	if err := queue.Drain(); err != nil {
//		log.Fatal(err)
//	}
package modhost

import "context"

// ModEntry is the capability a mod's code artifact exposes to the engine.
// Each code-bearing mod provides exactly one ModEntry implementation; the
// code unit loader invokes Startup after the unit is constructed and
// Shutdown before the unit is torn down.
//
// Shutdown must undo everything Startup installed (hooks, patches,
// registrations) so the backing code unit can be discarded deterministically.
type ModEntry interface {
	// Startup brings the mod's code online. It is called once per code
	// unit, after the mod's dependencies have all reached Enabled.
	Startup(ctx context.Context) error

	// Shutdown releases everything Startup installed. It is called during
	// unload and at the start of a hot reload, before the old unit is
	// discarded.
	Shutdown(ctx context.Context) error
}

// EntryFunc constructs a mod's ModEntry. Code artifacts hand one of these
// to the engine, either through StaticCodeHost.Register or as the
// well-known exported symbol a PluginCodeHost looks up.
type EntryFunc func() ModEntry

// ResourceBinder is the registration hook the engine calls when a mod ships
// a resource content directory. The engine does not interpret resource
// content itself; the host's asset system owns that. A nil binder means
// resource directories are noted but not registered anywhere.
type ResourceBinder func(modName, resourceDir string) error
