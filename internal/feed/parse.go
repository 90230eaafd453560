package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/price-relay/internal/model"
)

// StreamURL builds the full stream URL for a symbol's ticker channel.
func StreamURL(base, symbol string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.ToLower(symbol) + "@ticker"
}

// parseTicker decodes one exchange ticker payload into a Tick.
func parseTicker(data []byte) (model.Tick, error) {
	var wire tickerWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return model.Tick{}, fmt.Errorf("decode ticker: %w", err)
	}

	if wire.Symbol == "" {
		return model.Tick{}, errors.New("ticker payload missing symbol")
	}

	price, err := strconv.ParseFloat(wire.LastPrice, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse last price %q: %w", wire.LastPrice, err)
	}
	change, err := strconv.ParseFloat(wire.PriceChange, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse price change %q: %w", wire.PriceChange, err)
	}
	changePct, err := strconv.ParseFloat(wire.PriceChangePc, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse change percent %q: %w", wire.PriceChangePc, err)
	}
	volume, err := strconv.ParseFloat(wire.Volume, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse volume %q: %w", wire.Volume, err)
	}
	high, err := strconv.ParseFloat(wire.High, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse high %q: %w", wire.High, err)
	}
	low, err := strconv.ParseFloat(wire.Low, 64)
	if err != nil {
		return model.Tick{}, fmt.Errorf("parse low %q: %w", wire.Low, err)
	}

	ts := time.Now()
	if wire.EventTime > 0 {
		ts = time.UnixMilli(wire.EventTime)
	}

	return model.Tick{
		Symbol:        wire.Symbol,
		Price:         price,
		Change:        change,
		ChangePercent: fmt.Sprintf("%.2f%%", changePct),
		Volume:        volume,
		High:          high,
		Low:           low,
		Timestamp:     ts,
	}, nil
}
