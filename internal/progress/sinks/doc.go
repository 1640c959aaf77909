// Package sinks implements concrete progress consumers: structured logging,
// Prometheus collectors, and an in-memory snapshot served by the status
// endpoint. Each sink satisfies progress.Sink.
package sinks
