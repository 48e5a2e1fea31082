// Package handler provides the HTTP handlers of the logger's monitoring
// endpoint.
//
//   - health.go: liveness, readiness and the combined storage status
//   - handler.go: routing, the /metrics passthrough and JSON helpers
//
// Every endpoint is read-only. Recording and downloads stay on the command
// protocol.
package handler
