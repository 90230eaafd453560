package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.PingPeriod >= c.Server.PongWait {
		return errors.New("server.ping_period must be shorter than server.pong_wait")
	}

	u, err := url.Parse(c.Upstream.URL)
	if err != nil {
		return fmt.Errorf("upstream.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("upstream.url scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.Upstream.ReconnectBaseDelay <= 0 {
		return errors.New("upstream.reconnect_base_delay must be positive")
	}
	if c.Upstream.ReconnectMaxDelay < c.Upstream.ReconnectBaseDelay {
		return errors.New("upstream.reconnect_max_delay must be >= reconnect_base_delay")
	}
	if c.Upstream.MaxRetries < 1 {
		return errors.New("upstream.max_retries must be >= 1")
	}
	if c.Upstream.MessageBufferSize < 1 {
		return errors.New("upstream.message_buffer_size must be >= 1")
	}

	if c.Relay.ClientQueueSize < 1 {
		return errors.New("relay.client_queue_size must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}
	if c.Metrics.Port == c.Server.Port {
		return errors.New("metrics.port must differ from server.port")
	}

	return nil
}
