// Package hub implements the relay hub: the subscription registry mapping
// clients to instruments, the fan-out of upstream ticks to subscribed
// clients, and the bounded per-client outbound queues that isolate slow
// consumers.
package hub
