package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksReceived counts ticks parsed from the upstream stream, per symbol.
	TicksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_ticks_received_total",
		Help: "Ticks parsed from the upstream stream.",
	}, []string{"symbol"})

	// TicksRelayed counts tick deliveries enqueued to clients.
	TicksRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_ticks_relayed_total",
		Help: "Tick deliveries enqueued to client outbound queues.",
	}, []string{"symbol"})

	// TicksDropped counts deliveries dropped because a client queue was full.
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_ticks_dropped_total",
		Help: "Deliveries dropped due to full client outbound queues.",
	})

	// ParseErrors counts malformed upstream payloads dropped at the parse boundary.
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_upstream_parse_errors_total",
		Help: "Malformed upstream payloads dropped.",
	})

	// FeedReconnects counts reconnect cycles entered, per symbol.
	FeedReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_feed_reconnects_total",
		Help: "Upstream feed reconnect cycles.",
	}, []string{"symbol"})

	// FeedFailures counts feeds that exhausted their retry budget.
	FeedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_feed_failures_total",
		Help: "Upstream feeds that exhausted their retry budget.",
	})

	// FeedsOpen tracks currently open upstream feeds.
	FeedsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_feeds_open",
		Help: "Currently open upstream feeds.",
	})

	// ClientsConnected tracks currently connected client sessions.
	ClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_clients_connected",
		Help: "Currently connected client sessions.",
	})
)
