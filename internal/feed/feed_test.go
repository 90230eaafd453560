package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/price-relay/internal/model"
)

// scriptClient is a Client whose Connect outcome is scripted per dial.
type scriptClient struct {
	connectErr error
	messages   chan []byte
	errors     chan error
}

func newScriptClient(connectErr error) *scriptClient {
	return &scriptClient{
		connectErr: connectErr,
		messages:   make(chan []byte, 16),
		errors:     make(chan error, 1),
	}
}

func (c *scriptClient) Connect(context.Context) error { return c.connectErr }
func (c *scriptClient) Close() error                  { return nil }
func (c *scriptClient) Messages() <-chan []byte       { return c.messages }
func (c *scriptClient) Errors() <-chan error          { return c.errors }
func (c *scriptClient) IsConnected() bool             { return c.connectErr == nil }

// dialScript hands out one scripted client per dial attempt; the last entry
// repeats once the script runs out.
type dialScript struct {
	mu      sync.Mutex
	clients []*scriptClient
	dials   int
}

func (s *dialScript) newClient(ClientConfig, *slog.Logger) Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.dials
	if i >= len(s.clients) {
		i = len(s.clients) - 1
	}
	s.dials++
	return s.clients[i]
}

func (s *dialScript) dialCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// waitRecorder replaces the backoff sleep with an instant return, recording
// the requested delays.
type waitRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (w *waitRecorder) recorded() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}

func testFeedConfig() Config {
	return Config{
		URL:                "wss://example.invalid/ws/",
		ReconnectBaseDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:  40 * time.Millisecond,
		MaxRetries:         3,
		PingTimeout:        time.Second,
		WriteTimeout:       time.Second,
		MessageBufferSize:  16,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startScriptedFeed(t *testing.T, cfg Config, script *dialScript, rec *waitRecorder, onTick TickSink, onState StateSink) *Feed {
	t.Helper()

	f := New("BTCUSDT", cfg, onTick, onState, discardLogger())
	f.newClient = script.newClient
	if rec != nil {
		f.wait = rec.wait
	}
	f.Start(context.Background())
	t.Cleanup(f.Stop)
	return f
}

func waitDone(t *testing.T, f *Feed) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not finish in time")
	}
}

const validTickerPayload = `{"e":"24hrTicker","E":1690000000000,"s":"BTCUSDT",` +
	`"c":"50000.50","p":"1000.25","P":"2.05","v":"12345.6","h":"51000","l":"49000"}`

func TestFeed_DeliversTicks(t *testing.T) {
	client := newScriptClient(nil)
	script := &dialScript{clients: []*scriptClient{client}}
	ticks := make(chan model.Tick, 1)

	f := startScriptedFeed(t, testFeedConfig(), script, &waitRecorder{},
		func(symbol string, tick model.Tick) {
			if symbol != "BTCUSDT" {
				t.Errorf("tick symbol tag = %q, want %q", symbol, "BTCUSDT")
			}
			ticks <- tick
		}, nil)

	client.messages <- []byte(validTickerPayload)

	select {
	case tick := <-ticks:
		if tick.Price != 50000.50 {
			t.Errorf("Price = %v, want 50000.50", tick.Price)
		}
		if tick.ChangePercent != "2.05%" {
			t.Errorf("ChangePercent = %q, want %q", tick.ChangePercent, "2.05%")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick delivered")
	}

	f.Stop()
	waitDone(t, f)
	if f.State() != StateStopped {
		t.Errorf("State = %v, want stopped", f.State())
	}
}

func TestFeed_MalformedPayloadDropped(t *testing.T) {
	client := newScriptClient(nil)
	script := &dialScript{clients: []*scriptClient{client}}
	ticks := make(chan model.Tick, 2)

	f := startScriptedFeed(t, testFeedConfig(), script, &waitRecorder{},
		func(_ string, tick model.Tick) { ticks <- tick }, nil)

	client.messages <- []byte(`not json`)
	client.messages <- []byte(`{"s":"BTCUSDT","c":"bogus","p":"0","P":"0","v":"0","h":"0","l":"0"}`)
	client.messages <- []byte(validTickerPayload)

	select {
	case tick := <-ticks:
		if tick.Price != 50000.50 {
			t.Errorf("Price = %v, want 50000.50", tick.Price)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("valid tick after malformed payloads not delivered")
	}

	if got := f.ParseErrors(); got != 2 {
		t.Errorf("ParseErrors = %d, want 2", got)
	}

	select {
	case tick := <-ticks:
		t.Errorf("unexpected extra tick: %+v", tick)
	default:
	}
}

func TestFeed_BackoffDelaysNeverShrink(t *testing.T) {
	dialErr := errors.New("dial refused")
	script := &dialScript{clients: []*scriptClient{
		newScriptClient(dialErr),
		newScriptClient(dialErr),
		newScriptClient(dialErr),
		newScriptClient(dialErr),
		newScriptClient(dialErr),
		newScriptClient(nil),
	}}
	rec := &waitRecorder{}
	ticks := make(chan model.Tick, 1)

	cfg := testFeedConfig()
	cfg.MaxRetries = 10

	client := script.clients[5]
	startScriptedFeed(t, cfg, script, rec,
		func(_ string, tick model.Tick) { ticks <- tick }, nil)

	client.messages <- []byte(validTickerPayload)
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("feed never recovered")
	}

	delays := rec.recorded()
	want := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
	}
	if len(delays) != len(want) {
		t.Fatalf("recorded %d delays %v, want %d", len(delays), delays, len(want))
	}
	for i := range delays {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
		if i > 0 && delays[i] < delays[i-1] {
			t.Errorf("delay %d (%v) shrank from %v", i, delays[i], delays[i-1])
		}
	}
}

func TestFeed_FailsAfterRetryBudget(t *testing.T) {
	dialErr := errors.New("dial refused")
	script := &dialScript{clients: []*scriptClient{newScriptClient(dialErr)}}
	rec := &waitRecorder{}

	var (
		mu     sync.Mutex
		states []State
	)
	cfg := testFeedConfig()
	cfg.MaxRetries = 2

	f := startScriptedFeed(t, cfg, script, rec, func(string, model.Tick) {},
		func(_ string, s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		})

	waitDone(t, f)

	if f.State() != StateFailed {
		t.Errorf("State = %v, want failed", f.State())
	}
	// Initial attempt plus MaxRetries retries.
	if got := script.dialCount(); got != 3 {
		t.Errorf("dial count = %d, want 3", got)
	}
	if got := len(rec.recorded()); got != 2 {
		t.Errorf("backoff waits = %d, want 2", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) == 0 || states[len(states)-1] != StateFailed {
		t.Errorf("state transitions = %v, want final failed", states)
	}
}

func TestFeed_ReconnectsAfterConnectionLoss(t *testing.T) {
	first := newScriptClient(nil)
	second := newScriptClient(nil)
	script := &dialScript{clients: []*scriptClient{first, second}}
	ticks := make(chan model.Tick, 1)

	var (
		mu     sync.Mutex
		states []State
	)
	startScriptedFeed(t, testFeedConfig(), script, &waitRecorder{},
		func(_ string, tick model.Tick) { ticks <- tick },
		func(_ string, s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		})

	first.errors <- errors.New("connection reset")

	// A tick through the second client proves the reconnect completed.
	second.messages <- []byte(validTickerPayload)
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("no tick after reconnect")
	}

	if got := script.dialCount(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnected, StateReconnecting, StateConnected}
	if len(states) < len(want) {
		t.Fatalf("state transitions = %v, want at least %v", states, want)
	}
	for i, s := range want {
		if states[i] != s {
			t.Errorf("transition %d = %v, want %v", i, states[i], s)
		}
	}
}

func TestFeed_StopDuringBackoff(t *testing.T) {
	dialErr := errors.New("dial refused")
	script := &dialScript{clients: []*scriptClient{newScriptClient(dialErr)}}

	cfg := testFeedConfig()
	cfg.ReconnectBaseDelay = time.Hour // real sleep; Stop must cut it short
	cfg.MaxRetries = 10

	f := New("BTCUSDT", cfg, func(string, model.Tick) {}, nil, discardLogger())
	f.newClient = script.newClient
	f.Start(context.Background())

	// Let the first dial fail and the backoff begin.
	time.Sleep(20 * time.Millisecond)
	f.Stop()
	waitDone(t, f)

	if f.State() != StateStopped {
		t.Errorf("State = %v, want stopped", f.State())
	}
}

func TestFeed_StopIdempotent(t *testing.T) {
	client := newScriptClient(nil)
	script := &dialScript{clients: []*scriptClient{client}}

	f := startScriptedFeed(t, testFeedConfig(), script, &waitRecorder{},
		func(string, model.Tick) {}, nil)

	f.Stop()
	f.Stop()
	waitDone(t, f)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateReconnecting, "reconnecting"},
		{StateFailed, "failed"},
		{StateStopped, "stopped"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
