package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Relay    RelaySettings  `yaml:"relay"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the client-facing WebSocket server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PongWait       time.Duration `yaml:"pong_wait"`    // Max silence before a client is considered gone
	PingPeriod     time.Duration `yaml:"ping_period"`  // Must be shorter than pong_wait
	MaxMessageSize int64         `yaml:"max_message_size"`
}

// UpstreamConfig holds settings for connections to the exchange stream.
type UpstreamConfig struct {
	URL                string        `yaml:"url"` // Base URL, symbol stream path appended per feed
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	MaxRetries         int           `yaml:"max_retries"`
	PingTimeout        time.Duration `yaml:"ping_timeout"` // Heartbeat staleness threshold
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	MessageBufferSize  int           `yaml:"message_buffer_size"`
}

// RelaySettings holds fan-out behavior settings.
type RelaySettings struct {
	ClientQueueSize     int  `yaml:"client_queue_size"`
	SnapshotOnSubscribe bool `yaml:"snapshot_on_subscribe"` // Replay last known tick to new subscribers
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
