package feed

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// State describes where a feed is in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateReconnecting
	StateFailed
	StateStopped
)

// String returns the lowercase state name used in logs and status messages.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL          string        // Full stream URL including the symbol path segment
	PingTimeout  time.Duration // Max time without ping/pong before the connection is stale
	WriteTimeout time.Duration // Write deadline for control frames
	BufferSize   int           // Message channel buffer size
}

// Config configures a feed. All values are read once at feed construction;
// feeds do not observe configuration changes mid-flight.
type Config struct {
	URL                string        // Base stream URL, e.g. "wss://stream.binance.com:9443/ws/"
	ReconnectBaseDelay time.Duration // First retry delay
	ReconnectMaxDelay  time.Duration // Delay growth cap
	MaxRetries         int           // Consecutive failures tolerated before Failed
	PingTimeout        time.Duration
	WriteTimeout       time.Duration
	MessageBufferSize  int
}

// DefaultConfig returns sensible defaults for the public exchange stream.
func DefaultConfig() Config {
	return Config{
		URL:                "wss://stream.binance.com:9443/ws/",
		ReconnectBaseDelay: 5 * time.Second,
		ReconnectMaxDelay:  60 * time.Second,
		MaxRetries:         5,
		PingTimeout:        60 * time.Second,
		WriteTimeout:       5 * time.Second,
		MessageBufferSize:  1024,
	}
}

// tickerWire is the exchange's 24h ticker payload. Numeric fields arrive as
// strings on the wire.
type tickerWire struct {
	EventType     string `json:"e"` // "24hrTicker"
	EventTime     int64  `json:"E"` // Milliseconds since epoch
	Symbol        string `json:"s"`
	LastPrice     string `json:"c"`
	PriceChange   string `json:"p"`
	PriceChangePc string `json:"P"`
	Volume        string `json:"v"`
	High          string `json:"h"`
	Low           string `json:"l"`
}
