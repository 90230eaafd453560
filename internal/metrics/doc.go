// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Upstream feed state: reconnects, failures, open feed count
//   - Tick flow: received, relayed, dropped, parse errors
//   - Client sessions: connected count
package metrics
