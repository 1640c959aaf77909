// Package api hosts the optional status server that runs alongside a fetch
// or extract command. Routes:
//   - GET /healthz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /progress for a JSON snapshot of the current run.
package api
