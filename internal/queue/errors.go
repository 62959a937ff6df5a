package queue

import "errors"

// ErrBackpressure is returned by Enqueue when the queue is at capacity,
// per spec §4.2's overflow policy.
var ErrBackpressure = errors.New("queue: backpressure, command queue full")

// ErrShutdown is returned by Enqueue after Close, and delivered on the
// Reply channel of any command still pending at shutdown (spec §5
// "pending commands receive Shutdown replies").
var ErrShutdown = errors.New("queue: orchestrator is shutting down")
