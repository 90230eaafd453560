// Package model defines the core data types shared between the upstream
// feed layer and the client-facing relay:
//   - Tick: one immutable parsed price update
//   - PriceUpdate / FeedStatus: outbound wire envelopes
package model
