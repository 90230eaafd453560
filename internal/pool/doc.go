// Package pool implements the feed pool: a reference-counted registry of
// upstream feeds keyed by symbol. A feed is opened on first interest and
// closed when the last reference is released, so exactly one upstream
// connection exists per symbol with nonzero interest.
package pool
