// Package progress provides the event primitives, non-blocking hub, and emitter
// interfaces that the fetch and extract stages use to report progress. It
// batches events on a background goroutine and fans them out to pluggable
// sinks such as structured logs, Prometheus metrics, or an in-memory snapshot.
package progress
