package model

import "time"

// Tick is one parsed price update for a single instrument. Ticks are
// immutable after creation; the change and change-percent fields are passed
// through from the exchange payload, never computed locally.
type Tick struct {
	Symbol        string    `json:"symbol"`         // e.g. "BTCUSDT"
	Price         float64   `json:"price"`          // Last traded price
	Change        float64   `json:"change"`         // Absolute 24h price change
	ChangePercent string    `json:"change_percent"` // Pre-formatted, e.g. "2.15%"
	Volume        float64   `json:"volume"`         // 24h base asset volume
	High          float64   `json:"high"`           // 24h high
	Low           float64   `json:"low"`            // 24h low
	Timestamp     time.Time `json:"timestamp"`      // Exchange event time (RFC3339 on the wire)
}

// PriceUpdate is the outbound envelope delivered to subscribed clients.
type PriceUpdate struct {
	Type string `json:"type"` // Always "price_update"
	Data Tick   `json:"data"`
}

// NewPriceUpdate wraps a tick in its outbound envelope.
func NewPriceUpdate(t Tick) PriceUpdate {
	return PriceUpdate{Type: "price_update", Data: t}
}

// FeedStatus informs subscribed clients that an upstream feed changed health
// in a way they should know about. Only terminal failures are relayed;
// transient reconnects stay internal.
type FeedStatus struct {
	Type   string `json:"type"`   // Always "feed_status"
	Symbol string `json:"symbol"` // Affected instrument
	Status string `json:"status"` // e.g. "failed"
}

// NewFeedStatus builds a feed_status envelope.
func NewFeedStatus(symbol, status string) FeedStatus {
	return FeedStatus{Type: "feed_status", Symbol: symbol, Status: status}
}
