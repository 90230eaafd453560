package hub

import (
	"sync"
)

// Outbox is a fixed-capacity FIFO of outbound client messages. When full,
// TrySend drops the incoming message and counts it, so the oldest queued
// messages still reach the client and the producer never blocks.
type Outbox struct {
	mu    sync.Mutex
	buf   [][]byte
	head  int // read position
	tail  int // write position
	count int

	closed bool

	// Stats
	enqueued int64
	sent     int64
	dropped  int64

	notify chan struct{} // pulsed on enqueue, capacity 1
	done   chan struct{} // closed by Close
}

// NewOutbox creates an outbox with the given capacity.
func NewOutbox(capacity int) *Outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &Outbox{
		buf:    make([][]byte, capacity),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// TrySend enqueues msg without blocking. Returns false if the outbox is full
// or closed; a full outbox increments the drop counter.
func (o *Outbox) TrySend(msg []byte) bool {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()
		return false
	}
	if o.count == len(o.buf) {
		o.dropped++
		o.mu.Unlock()
		return false
	}

	o.buf[o.tail] = msg
	o.tail = (o.tail + 1) % len(o.buf)
	o.count++
	o.enqueued++
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
	return true
}

// TryReceive dequeues the oldest message without blocking.
func (o *Outbox) TryReceive() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.count == 0 {
		return nil, false
	}

	msg := o.buf[o.head]
	o.buf[o.head] = nil // release for GC
	o.head = (o.head + 1) % len(o.buf)
	o.count--
	o.sent++
	return msg, true
}

// Notify is pulsed whenever a message is enqueued. Consumers select on it
// alongside their other wakeup sources, then drain with TryReceive.
func (o *Outbox) Notify() <-chan struct{} {
	return o.notify
}

// Done is closed once the outbox is closed.
func (o *Outbox) Done() <-chan struct{} {
	return o.done
}

// Close shuts the outbox. Idempotent; after closing, TrySend returns false
// and pending messages remain drainable via TryReceive.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.done)
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// Dropped returns the number of messages dropped because the outbox was full.
func (o *Outbox) Dropped() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// OutboxStats contains outbox counters.
type OutboxStats struct {
	Queued   int
	Capacity int
	Enqueued int64
	Sent     int64
	Dropped  int64
}

// Stats returns a snapshot of the outbox counters.
func (o *Outbox) Stats() OutboxStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OutboxStats{
		Queued:   o.count,
		Capacity: len(o.buf),
		Enqueued: o.enqueued,
		Sent:     o.sent,
		Dropped:  o.dropped,
	}
}
