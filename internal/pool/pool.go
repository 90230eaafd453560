package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rickgao/price-relay/internal/feed"
	"github.com/rickgao/price-relay/internal/metrics"
	"github.com/rickgao/price-relay/internal/model"
)

// ErrNotAcquired reports a release of a symbol with no outstanding
// acquisitions. This is a programming error in the caller, not a recoverable
// condition, and the pool's state is left untouched.
var ErrNotAcquired = errors.New("release of symbol with no acquisitions")

// TickFunc is the single fan-out callback every live feed routes into.
type TickFunc func(symbol string, tick model.Tick)

// StateFunc receives feed state transitions.
type StateFunc func(symbol string, state feed.State)

// Feed is the slice of a feed's surface the pool manages.
type Feed interface {
	Stop()
	State() feed.State
	Done() <-chan struct{}
}

// FeedFactory creates and starts a feed for symbol, wired to the given
// sinks. Swappable for tests.
type FeedFactory func(ctx context.Context, symbol string, onTick TickFunc, onState StateFunc) Feed

// Option configures a Pool.
type Option func(*Pool)

// WithFeedFactory replaces the default feed construction.
func WithFeedFactory(factory FeedFactory) Option {
	return func(p *Pool) {
		p.factory = factory
	}
}

// entry tracks one open feed and its reference count.
type entry struct {
	feed Feed
	refs int
}

// Pool is the reference-counted feed registry. All operations are
// internally synchronized; acquire/release for a symbol and the
// corresponding feed open/close are linearized under the pool's lock.
type Pool struct {
	cfg     feed.Config
	logger  *slog.Logger
	onTick  TickFunc
	onState StateFunc
	factory FeedFactory

	mu     sync.Mutex
	feeds  map[string]*entry
	closed bool
}

// Stats is a point-in-time snapshot of pool membership.
type Stats struct {
	OpenFeeds int
	TotalRefs int
}

// New creates a pool. Ticks from every feed the pool opens are routed to
// onTick tagged with the pool's symbol key; state transitions go to onState.
func New(cfg feed.Config, onTick TickFunc, onState StateFunc, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pool{
		cfg:     cfg,
		logger:  logger,
		onTick:  onTick,
		onState: onState,
		feeds:   make(map[string]*entry),
	}
	p.factory = p.startFeed

	for _, opt := range opts {
		opt(p)
	}
	return p
}

// startFeed is the default factory: a real upstream feed.
func (p *Pool) startFeed(ctx context.Context, symbol string, onTick TickFunc, onState StateFunc) Feed {
	f := feed.New(symbol, p.cfg, feed.TickSink(onTick), feed.StateSink(onState), p.logger)
	f.Start(ctx)
	return f
}

// Acquire increments the reference count for symbol, opening a feed if the
// count was zero.
func (p *Pool) Acquire(ctx context.Context, symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	e, ok := p.feeds[symbol]
	if !ok {
		e = &entry{feed: p.factory(ctx, symbol, p.onTick, p.onState)}
		p.feeds[symbol] = e
		metrics.FeedsOpen.Inc()
		p.logger.Info("opened upstream feed", "symbol", symbol)
	}
	e.refs++
}

// Release decrements the reference count for symbol, stopping and discarding
// the feed when the count reaches zero. Releasing below zero returns
// ErrNotAcquired and leaves the pool unchanged.
func (p *Pool) Release(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.feeds[symbol]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotAcquired, symbol)
	}

	e.refs--
	if e.refs <= 0 {
		e.feed.Stop()
		delete(p.feeds, symbol)
		metrics.FeedsOpen.Dec()
		p.logger.Info("closed upstream feed", "symbol", symbol)
	}
	return nil
}

// Refs returns the current reference count for symbol.
func (p *Pool) Refs(symbol string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.feeds[symbol]; ok {
		return e.refs
	}
	return 0
}

// Symbols returns the sorted set of symbols with an open feed.
func (p *Pool) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbols := make([]string, 0, len(p.feeds))
	for s := range p.feeds {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// FeedState returns the lifecycle state of the feed for symbol, if open.
func (p *Pool) FeedState(symbol string) (feed.State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.feeds[symbol]; ok {
		return e.feed.State(), true
	}
	return 0, false
}

// Stats returns a snapshot of pool membership.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{OpenFeeds: len(p.feeds)}
	for _, e := range p.feeds {
		st.TotalRefs += e.refs
	}
	return st
}

// Close stops every open feed and rejects further acquisitions.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for symbol, e := range p.feeds {
		e.feed.Stop()
		delete(p.feeds, symbol)
		metrics.FeedsOpen.Dec()
	}
}
