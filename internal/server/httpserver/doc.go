// Package httpserver provides the logger's monitoring HTTP endpoint.
//
// Routes, all GET:
//
//   - /metrics: Prometheus scrape
//   - /health: liveness
//   - /ready: 200 when the card passes its probe, 503 otherwise
//   - /status: ring and card status as JSON
//
// Every request passes RequestID, Recover, AccessLog and, when configured,
// a per-client RateLimit.
package httpserver
