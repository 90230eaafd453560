// Package server implements the client-facing WebSocket endpoint.
//
// Each accepted connection becomes a session with a unique client id, a
// read pump handling subscribe/unsubscribe requests, and a write pump
// draining the session's bounded outbound queue. A failing or slow client
// only ever affects its own session.
package server
