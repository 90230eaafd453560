package feed

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/price-relay/internal/metrics"
	"github.com/rickgao/price-relay/internal/model"
)

// TickSink receives every successfully parsed tick, tagged with the symbol
// the feed was opened for. Sinks must not block: the feed's read loop calls
// them inline.
type TickSink func(symbol string, tick model.Tick)

// StateSink receives feed state transitions.
type StateSink func(symbol string, state State)

// Feed owns one persistent upstream connection for a single symbol and keeps
// it alive across network failures until stopped or the retry budget runs out.
type Feed struct {
	symbol string
	cfg    Config
	logger *slog.Logger

	onTick  TickSink
	onState StateSink

	// Swapped out in tests
	newClient func(cfg ClientConfig, logger *slog.Logger) Client
	wait      func(ctx context.Context, d time.Duration) error

	state       atomic.Int32
	parseErrors atomic.Int64

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a feed for symbol. The feed is created in state Connecting and
// does nothing until Start.
func New(symbol string, cfg Config, onTick TickSink, onState StateSink, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Feed{
		symbol:    symbol,
		cfg:       cfg,
		logger:    logger.With("symbol", symbol),
		onTick:    onTick,
		onState:   onState,
		newClient: NewClient,
		wait:      waitFor,
		done:      make(chan struct{}),
	}
	f.state.Store(int32(StateConnecting))
	return f
}

// Start launches the feed's connection loop.
func (f *Feed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	go f.run(ctx)
}

// Stop shuts the feed down. Idempotent; unblocks any pending I/O.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		if f.cancel != nil {
			f.cancel()
		}
	})
}

// State returns the feed's current lifecycle state.
func (f *Feed) State() State {
	return State(f.state.Load())
}

// Done is closed when the connection loop has fully exited.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// ParseErrors returns the count of malformed payloads dropped so far.
func (f *Feed) ParseErrors() int64 {
	return f.parseErrors.Load()
}

// setState records a transition and reports it to the state sink.
func (f *Feed) setState(s State) {
	if State(f.state.Swap(int32(s))) == s {
		return
	}
	if f.onState != nil {
		f.onState(f.symbol, s)
	}
}

// run is the reconnect state machine. It dials, consumes until the
// connection breaks, and retries with a non-decreasing delay until the retry
// budget is exhausted or the feed is stopped.
func (f *Feed) run(ctx context.Context) {
	defer close(f.done)

	clientCfg := ClientConfig{
		URL:          StreamURL(f.cfg.URL, f.symbol),
		PingTimeout:  f.cfg.PingTimeout,
		WriteTimeout: f.cfg.WriteTimeout,
		BufferSize:   f.cfg.MessageBufferSize,
	}

	delay := f.cfg.ReconnectBaseDelay
	attempts := 0

	for {
		client := f.newClient(clientCfg, f.logger)

		if err := client.Connect(ctx); err != nil {
			client.Close()
			if ctx.Err() != nil {
				f.setState(StateStopped)
				return
			}

			attempts++
			if attempts > f.cfg.MaxRetries {
				f.logger.Error("retry budget exhausted, giving up",
					"attempts", attempts,
					"error", err,
				)
				metrics.FeedFailures.Inc()
				f.setState(StateFailed)
				return
			}
			f.logger.Warn("connect failed",
				"attempt", attempts,
				"max_retries", f.cfg.MaxRetries,
				"retry_in", delay,
				"error", err,
			)
		} else {
			attempts = 0
			delay = f.cfg.ReconnectBaseDelay
			f.setState(StateConnected)

			err := f.consume(ctx, client)
			client.Close()

			if ctx.Err() != nil {
				f.setState(StateStopped)
				return
			}
			f.logger.Warn("connection lost", "error", err, "retry_in", delay)
		}

		// Both paths retry after a delay that never shrinks between
		// consecutive failures.
		f.setState(StateReconnecting)
		metrics.FeedReconnects.WithLabelValues(f.symbol).Inc()

		if f.wait(ctx, delay) != nil {
			f.setState(StateStopped)
			return
		}

		delay *= 2
		if delay > f.cfg.ReconnectMaxDelay {
			delay = f.cfg.ReconnectMaxDelay
		}
	}
}

// consume reads messages until the connection errors or the feed is stopped.
// Malformed payloads are dropped and counted, never treated as connection
// errors.
func (f *Feed) consume(ctx context.Context, client Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-client.Errors():
			return err

		case data, ok := <-client.Messages():
			if !ok {
				return ErrNotConnected
			}

			tick, err := parseTicker(data)
			if err != nil {
				f.parseErrors.Add(1)
				metrics.ParseErrors.Inc()
				f.logger.Warn("dropping malformed payload", "error", err)
				continue
			}

			metrics.TicksReceived.WithLabelValues(f.symbol).Inc()
			f.onTick(f.symbol, tick)
		}
	}
}

// waitFor sleeps for d or until ctx is cancelled.
func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
