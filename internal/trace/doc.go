// Package trace provides a lightweight tracing subsystem for the term
// pool. It records pool lifecycle events, collection cycles and table
// activity to help diagnose pause times and leaks.
//
// # Architecture
//
// The package provides several tracer implementations:
//
//   - NopTracer: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular in-memory buffer for post-mortem dumps
//   - MultiTracer: fan-out to several tracers
//
// # Levels
//
// Verbosity is controlled by levels:
//
//   - LevelOff: no tracing
//   - LevelCollect: pool lifecycle and collection cycles
//   - LevelThread: additionally thread registration and deregistration
//   - LevelDebug: everything including table activity
//
// Tracers are goroutine-safe; the pool emits events from whichever
// thread triggers them, including from inside the collector's critical
// section.
package trace
