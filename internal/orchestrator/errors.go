package orchestrator

import "errors"

// Error taxonomy per spec §7. Command-originated errors (NotFound,
// Conflict) surface synchronously on the command's Reply channel, while
// Backpressure is returned by queue.Enqueue itself; physics-level errors (WorkerTimeout, WorkerError, Deadline)
// are logged and affect only which bodies advance this tick, never
// surfaced to clients.
var (
	ErrNotFound         = errors.New("orchestrator: body not found")
	ErrConflict         = errors.New("orchestrator: CAS conflict after retries")
	ErrBackpressure     = errors.New("orchestrator: command queue full")
	ErrShutdown         = errors.New("orchestrator: shutting down")
	ErrWorkerTimeout    = errors.New("orchestrator: worker timeout")
	ErrDeadlineExceeded = errors.New("orchestrator: tick deadline exceeded")
	// ErrFatal wraps conditions the orchestrator cannot recover from —
	// state store unavailable, invariant violated — and triggers a clean
	// shutdown of the current tick followed by process exit.
	ErrFatal = errors.New("orchestrator: fatal error")
)
