package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHost               = "0.0.0.0"
	DefaultPort               = 8000
	DefaultWriteTimeout       = 5 * time.Second
	DefaultPongWait           = 60 * time.Second
	DefaultPingPeriod         = 50 * time.Second
	DefaultMaxMessageSize     = 64 * 1024
	DefaultUpstreamURL        = "wss://stream.binance.com:9443/ws/"
	DefaultReconnectBaseDelay = 5 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultMaxRetries         = 5
	DefaultPingTimeout        = 60 * time.Second
	DefaultMessageBufferSize  = 1024
	DefaultClientQueueSize    = 256
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
)

func (c *RelayConfig) applyDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PongWait == 0 {
		c.Server.PongWait = DefaultPongWait
	}
	if c.Server.PingPeriod == 0 {
		c.Server.PingPeriod = DefaultPingPeriod
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = DefaultMaxMessageSize
	}

	// Upstream defaults
	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.ReconnectBaseDelay == 0 {
		c.Upstream.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Upstream.ReconnectMaxDelay == 0 {
		c.Upstream.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = DefaultMaxRetries
	}
	if c.Upstream.PingTimeout == 0 {
		c.Upstream.PingTimeout = DefaultPingTimeout
	}
	if c.Upstream.WriteTimeout == 0 {
		c.Upstream.WriteTimeout = DefaultWriteTimeout
	}
	if c.Upstream.MessageBufferSize == 0 {
		c.Upstream.MessageBufferSize = DefaultMessageBufferSize
	}

	// Relay defaults
	if c.Relay.ClientQueueSize == 0 {
		c.Relay.ClientQueueSize = DefaultClientQueueSize
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
