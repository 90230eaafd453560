package hub

import (
	"sort"
	"sync"
)

// Registry is the bidirectional mapping between client identity and the
// symbols that client wants. It is pure bookkeeping: each mutation reports
// which symbols crossed the zero-interest boundary so the caller can adjust
// the feed pool. All operations are internally synchronized.
type Registry struct {
	mu          sync.RWMutex
	clientSubs  map[string]map[string]struct{} // client → symbols
	subscribers map[string]map[string]struct{} // symbol → clients
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clientSubs:  make(map[string]map[string]struct{}),
		subscribers: make(map[string]map[string]struct{}),
	}
}

// Subscribe adds symbols to the client's set. It returns the symbols newly
// added for this client (already-subscribed symbols are idempotent no-ops)
// and, of those, the ones whose aggregate interest went from zero to
// nonzero.
func (r *Registry) Subscribe(clientID string, symbols []string) (added, activated []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.clientSubs[clientID]
	if subs == nil {
		subs = make(map[string]struct{})
		r.clientSubs[clientID] = subs
	}

	for _, sym := range symbols {
		if _, ok := subs[sym]; ok {
			continue
		}
		subs[sym] = struct{}{}
		added = append(added, sym)

		clients := r.subscribers[sym]
		if clients == nil {
			clients = make(map[string]struct{})
			r.subscribers[sym] = clients
			activated = append(activated, sym)
		}
		clients[clientID] = struct{}{}
	}
	return added, activated
}

// Unsubscribe removes symbols from the client's set. Symbols the client
// never subscribed to are ignored. It returns the symbols actually removed
// and, of those, the ones whose aggregate interest dropped to zero.
func (r *Registry) Unsubscribe(clientID string, symbols []string) (removed, deactivated []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.clientSubs[clientID]
	if subs == nil {
		return nil, nil
	}

	for _, sym := range symbols {
		if _, ok := subs[sym]; !ok {
			continue
		}
		delete(subs, sym)
		removed = append(removed, sym)

		if r.dropSubscriberLocked(sym, clientID) {
			deactivated = append(deactivated, sym)
		}
	}
	return removed, deactivated
}

// RemoveClient atomically removes the client's entire subscription set,
// returning the symbols whose aggregate interest dropped to zero.
func (r *Registry) RemoveClient(clientID string) (deactivated []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.clientSubs[clientID]
	delete(r.clientSubs, clientID)

	for sym := range subs {
		if r.dropSubscriberLocked(sym, clientID) {
			deactivated = append(deactivated, sym)
		}
	}
	return deactivated
}

// dropSubscriberLocked removes clientID from a symbol's subscriber set and
// reports whether the set became empty. Caller must hold the write lock.
func (r *Registry) dropSubscriberLocked(sym, clientID string) bool {
	clients := r.subscribers[sym]
	if clients == nil {
		return false
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(r.subscribers, sym)
		return true
	}
	return false
}

// Subscribers returns the clients currently subscribed to symbol.
func (r *Registry) Subscribers(symbol string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := r.subscribers[symbol]
	if len(clients) == 0 {
		return nil
	}
	result := make([]string, 0, len(clients))
	for id := range clients {
		result = append(result, id)
	}
	return result
}

// ClientSymbols returns the sorted symbols the client is subscribed to.
func (r *Registry) ClientSymbols(clientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.clientSubs[clientID]
	result := make([]string, 0, len(subs))
	for sym := range subs {
		result = append(result, sym)
	}
	sort.Strings(result)
	return result
}

// ActiveSymbols returns the sorted symbols with nonzero aggregate interest.
func (r *Registry) ActiveSymbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.subscribers))
	for sym := range r.subscribers {
		result = append(result, sym)
	}
	sort.Strings(result)
	return result
}

// SubscriberCount returns the aggregate interest for symbol.
func (r *Registry) SubscriberCount(symbol string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[symbol])
}
