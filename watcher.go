package modhost

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// artifactWatcher monitors a mod's compiled code artifact and fires a
// reload trigger when the file is rewritten. The watch is one-shot: the
// first matching event disarms it, so overlapping filesystem events during
// a rebuild cannot stack duplicate reloads, and it is re-armed only after
// the new code unit has been constructed.
//
// The parent directory is watched rather than the file itself, because
// build tools typically replace artifacts by rename, which would otherwise
// drop the watch.
type artifactWatcher struct {
	fsw     *fsnotify.Watcher
	path    string
	logger  Logger
	trigger func()
	armed   atomic.Bool
	done    chan struct{}
}

// newArtifactWatcher starts watching the artifact at path and calls
// trigger (once per arming) when it changes.
func newArtifactWatcher(path string, logger Logger, trigger func()) (*artifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create artifact watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("watch artifact directory: %w", err)
	}

	w := &artifactWatcher{
		fsw:     fsw,
		path:    abs,
		logger:  logger,
		trigger: trigger,
		done:    make(chan struct{}),
	}
	w.armed.Store(true)
	go w.run()
	return w, nil
}

func (w *artifactWatcher) run() {
	defer close(w.done)
	for {
		select {
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.matches(evt) {
				continue
			}
			// Disarm before triggering so a burst of events from one
			// rebuild produces exactly one reload request.
			if w.armed.CompareAndSwap(true, false) {
				w.logger.Debug("Artifact changed, reload triggered", "artifact", w.path, "op", evt.Op.String())
				w.trigger()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Artifact watcher error", "artifact", w.path, "error", err)
		}
	}
}

func (w *artifactWatcher) matches(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != w.path {
		return false
	}
	return evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename)
}

// rearm re-enables the watch after a reload has rebuilt the code unit.
func (w *artifactWatcher) rearm() {
	w.armed.Store(true)
}

// close stops the watcher and waits for its event loop to exit.
func (w *artifactWatcher) close() {
	w.fsw.Close() //nolint:errcheck // closing the event channels is the point
	<-w.done
}
