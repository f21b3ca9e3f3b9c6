package modhost

// Option configures a ModHost at construction time.
type Option func(*ModHost)

// WithConfig replaces the host's tuning configuration.
func WithConfig(cfg HostConfig) Option {
	return func(h *ModHost) {
		h.cfg = cfg.normalize()
	}
}

// WithTaskQueue sets the task queue the engine schedules deferred work and
// deferred failures on. The host is expected to drain it once per frame.
func WithTaskQueue(queue TaskQueue) Option {
	return func(h *ModHost) {
		if queue != nil {
			h.queue = queue
		}
	}
}

// WithCodeHost sets the code host used to open mod code artifacts. The
// default is an empty StaticCodeHost, which fails every artifact open
// until entries are registered with it.
func WithCodeHost(host CodeHost) Option {
	return func(h *ModHost) {
		if host != nil {
			h.codeHost = host
		}
	}
}

// WithResourceBinder sets the hook called when a mod ships a resource
// content directory.
func WithResourceBinder(binder ResourceBinder) Option {
	return func(h *ModHost) {
		h.binder = binder
	}
}

// WithHostState injects persisted host state directly, bypassing
// HostConfig.StatePath. Useful for hosts that persist state themselves.
func WithHostState(state *HostState) Option {
	return func(h *ModHost) {
		h.state = state
	}
}
