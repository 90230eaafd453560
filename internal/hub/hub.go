package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/rickgao/price-relay/internal/feed"
	"github.com/rickgao/price-relay/internal/metrics"
	"github.com/rickgao/price-relay/internal/model"
	"github.com/rickgao/price-relay/internal/pool"
)

// Client is the hub's view of a connected session. Send must not block;
// it returns false when the message was dropped.
type Client interface {
	ID() string
	Send(msg []byte) bool
}

// Config holds fan-out behavior settings.
type Config struct {
	// SnapshotOnSubscribe replays the latest known tick of an already-open
	// feed to a newly subscribing client. When false, clients only see
	// future ticks.
	SnapshotOnSubscribe bool
}

// Stats is a point-in-time snapshot of hub state for health reporting.
type Stats struct {
	Clients   int
	OpenFeeds int
	Symbols   []string
}

// Hub routes client subscription changes into the registry and the feed
// pool, and fans out every upstream tick to the clients subscribed to its
// symbol. The hub owns both the registry and the pool; membership mutations
// are serialized so the registry's aggregate counts and the pool's
// reference counts never diverge.
type Hub struct {
	cfg    Config
	logger *slog.Logger

	ctx      context.Context
	registry *Registry
	pool     *pool.Pool

	// mu serializes registry mutation + pool acquire/release pairs.
	mu sync.Mutex

	clientsMu sync.RWMutex
	clients   map[string]Client

	lastMu   sync.RWMutex
	lastTick map[string]model.Tick
}

// New creates a hub with its own feed pool. Pool options are forwarded so
// tests can substitute the feed factory.
func New(ctx context.Context, cfg Config, feedCfg feed.Config, logger *slog.Logger, opts ...pool.Option) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		cfg:      cfg,
		logger:   logger,
		ctx:      ctx,
		registry: NewRegistry(),
		clients:  make(map[string]Client),
		lastTick: make(map[string]model.Tick),
	}
	h.pool = pool.New(feedCfg, h.handleTick, h.handleFeedState, logger, opts...)
	return h
}

// Register makes a client visible to the fan-out path. It must be called
// before the client issues subscribe requests.
func (h *Hub) Register(c Client) {
	h.clientsMu.Lock()
	h.clients[c.ID()] = c
	h.clientsMu.Unlock()

	metrics.ClientsConnected.Inc()
	h.logger.Info("client registered", "client_id", c.ID())
}

// Subscribe adds the client's interest in the given symbols, opening
// upstream feeds for symbols nobody was watching before. Symbols are
// normalized to uppercase; invalid ones are skipped. Returns the symbols
// accepted (including already-subscribed ones, which are no-ops).
func (h *Hub) Subscribe(clientID string, symbols []string) []string {
	accepted := normalizeSymbols(symbols)
	if len(accepted) == 0 {
		return nil
	}

	h.mu.Lock()
	added, activated := h.registry.Subscribe(clientID, accepted)
	for _, sym := range activated {
		h.pool.Acquire(h.ctx, sym)
	}
	h.mu.Unlock()

	h.logger.Debug("subscribed",
		"client_id", clientID,
		"symbols", accepted,
		"new", len(added),
		"feeds_opened", len(activated),
	)

	if h.cfg.SnapshotOnSubscribe {
		h.sendSnapshots(clientID, added)
	}

	return accepted
}

// Unsubscribe removes the client's interest in the given symbols, closing
// feeds that reach zero aggregate interest. Unknown symbols are idempotent
// no-ops. Returns the normalized symbols processed.
func (h *Hub) Unsubscribe(clientID string, symbols []string) []string {
	processed := normalizeSymbols(symbols)
	if len(processed) == 0 {
		return nil
	}

	h.mu.Lock()
	_, deactivated := h.registry.Unsubscribe(clientID, processed)
	h.releaseLocked(deactivated)
	h.mu.Unlock()

	h.logger.Debug("unsubscribed",
		"client_id", clientID,
		"symbols", processed,
		"feeds_closed", len(deactivated),
	)

	return processed
}

// Disconnect atomically removes all of the client's subscriptions and drops
// it from the fan-out tables. Safe to call for unknown clients.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	deactivated := h.registry.RemoveClient(clientID)
	h.releaseLocked(deactivated)
	h.mu.Unlock()

	h.clientsMu.Lock()
	_, known := h.clients[clientID]
	delete(h.clients, clientID)
	h.clientsMu.Unlock()

	if known {
		metrics.ClientsConnected.Dec()
		h.logger.Info("client disconnected",
			"client_id", clientID,
			"feeds_closed", len(deactivated),
		)
	}
}

// releaseLocked releases pool references for symbols that lost their last
// subscriber. Caller must hold h.mu.
func (h *Hub) releaseLocked(symbols []string) {
	for _, sym := range symbols {
		if err := h.pool.Release(sym); err != nil {
			// Registry and pool disagree about interest; should not happen.
			h.logger.Error("feed release failed", "symbol", sym, "error", err)
		}
	}
}

// Symbols returns the client's current subscription set.
func (h *Hub) Symbols(clientID string) []string {
	return h.registry.ClientSymbols(clientID)
}

// Pool exposes the feed pool for health reporting and tests.
func (h *Hub) Pool() *pool.Pool {
	return h.pool
}

// Registry exposes the subscription registry for health reporting and tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Stats returns a snapshot of hub state.
func (h *Hub) Stats() Stats {
	h.clientsMu.RLock()
	clients := len(h.clients)
	h.clientsMu.RUnlock()

	return Stats{
		Clients:   clients,
		OpenFeeds: h.pool.Stats().OpenFeeds,
		Symbols:   h.registry.ActiveSymbols(),
	}
}

// Close releases every upstream feed. Client sessions shut themselves down.
func (h *Hub) Close() {
	h.pool.Close()
}

// handleTick is the pool's fan-out callback. It runs on the feed's read
// goroutine, so delivery must never block: each subscriber gets a
// non-blocking enqueue of the same marshaled bytes, preserving per-symbol
// order for every client.
func (h *Hub) handleTick(symbol string, tick model.Tick) {
	h.lastMu.Lock()
	h.lastTick[symbol] = tick
	h.lastMu.Unlock()

	msg, err := json.Marshal(model.NewPriceUpdate(tick))
	if err != nil {
		h.logger.Error("marshal price update", "symbol", symbol, "error", err)
		return
	}

	for _, clientID := range h.registry.Subscribers(symbol) {
		if !h.deliver(clientID, msg) {
			metrics.TicksDropped.Inc()
			continue
		}
		metrics.TicksRelayed.WithLabelValues(symbol).Inc()
	}
}

// handleFeedState relays terminal feed failures to subscribed clients as an
// informational event. Transient reconnects stay internal; clients only see
// them as a latency gap.
func (h *Hub) handleFeedState(symbol string, state feed.State) {
	if state != feed.StateFailed {
		return
	}

	h.logger.Warn("upstream feed failed", "symbol", symbol)

	msg, err := json.Marshal(model.NewFeedStatus(symbol, state.String()))
	if err != nil {
		h.logger.Error("marshal feed status", "symbol", symbol, "error", err)
		return
	}

	for _, clientID := range h.registry.Subscribers(symbol) {
		h.deliver(clientID, msg)
	}
}

// deliver enqueues msg to one client without blocking.
func (h *Hub) deliver(clientID string, msg []byte) bool {
	h.clientsMu.RLock()
	c, ok := h.clients[clientID]
	h.clientsMu.RUnlock()

	if !ok {
		return false
	}
	return c.Send(msg)
}

// sendSnapshots replays the latest known tick for each symbol to one client.
func (h *Hub) sendSnapshots(clientID string, symbols []string) {
	for _, sym := range symbols {
		h.lastMu.RLock()
		tick, ok := h.lastTick[sym]
		h.lastMu.RUnlock()
		if !ok {
			continue
		}

		msg, err := json.Marshal(model.NewPriceUpdate(tick))
		if err != nil {
			continue
		}
		h.deliver(clientID, msg)
	}
}

// normalizeSymbols uppercases and de-duplicates symbols, dropping invalid
// ones. Symbols are opaque identifiers; only shape is checked here.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))

	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if !validSymbol(sym) {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		result = append(result, sym)
	}
	return result
}

// validSymbol reports whether sym looks like an exchange instrument
// identifier after normalization.
func validSymbol(sym string) bool {
	if len(sym) < 2 || len(sym) > 20 {
		return false
	}
	for _, r := range sym {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
