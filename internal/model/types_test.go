package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPriceUpdate_WireShape(t *testing.T) {
	tick := Tick{
		Symbol:        "BTCUSDT",
		Price:         50000.50,
		Change:        1000.25,
		ChangePercent: "2.05%",
		Volume:        12345.6,
		High:          51000,
		Low:           49000,
		Timestamp:     time.Date(2023, 7, 22, 5, 46, 40, 0, time.UTC),
	}

	data, err := json.Marshal(NewPriceUpdate(tick))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if wire["type"] != "price_update" {
		t.Errorf("type = %v, want %q", wire["type"], "price_update")
	}

	payload, ok := wire["data"].(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", wire["data"])
	}
	if payload["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v, want BTCUSDT", payload["symbol"])
	}
	if payload["price"] != 50000.50 {
		t.Errorf("price = %v, want 50000.50", payload["price"])
	}
	if payload["change_percent"] != "2.05%" {
		t.Errorf("change_percent = %v, want %q", payload["change_percent"], "2.05%")
	}
	for _, key := range []string{"change", "volume", "high", "low", "timestamp"} {
		if _, ok := payload[key]; !ok {
			t.Errorf("data missing key %q", key)
		}
	}
}

func TestFeedStatus_WireShape(t *testing.T) {
	data, err := json.Marshal(NewFeedStatus("BTCUSDT", "failed"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if wire["type"] != "feed_status" {
		t.Errorf("type = %v, want %q", wire["type"], "feed_status")
	}
	if wire["symbol"] != "BTCUSDT" {
		t.Errorf("symbol = %v, want BTCUSDT", wire["symbol"])
	}
	if wire["status"] != "failed" {
		t.Errorf("status = %v, want failed", wire["status"])
	}
}
