package modhost

// Logger defines the interface for engine logging.
// The engine uses structured logging with key-value pairs so the host
// application controls how mod lifecycle logs appear.
//
// All engine operations (manifest parsing, dependency waits, watchdog
// decisions, code unit loads and reloads) are logged through this
// interface. The variadic arguments are key-value pairs:
//
//	logger.Info("Mod loaded", "mod", "example", "version", "1.2.0")
//
// This shape is compatible with slog, zap's sugared logger, logrus and
// similar structured logging libraries.
type Logger interface {
	// Info logs a normal lifecycle event: a mod committing, a batch
	// settling, a reload completing.
	Info(msg string, args ...any)

	// Error logs a failure that was contained to a single mod or emission
	// path and did not abort the batch.
	Error(msg string, args ...any)

	// Warn logs an unusual but expected condition, such as a soft
	// dependency that was never satisfied or a reload request for a mod
	// without code.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information: per-check resolver
	// results, watchdog stall counts, watcher arming.
	Debug(msg string, args ...any)
}
