// Package feed implements the upstream feed component.
//
// Each feed:
//   - Owns one WebSocket connection to the exchange stream for one symbol
//   - Runs a reconnect state machine with non-decreasing backoff
//   - Detects stale connections via protocol-level ping/pong heartbeats
//   - Parses exchange ticker payloads into model.Tick values
//   - Pushes each parsed tick to its sink exactly once
package feed
