// Package broadcast provides per-deal-id fan-out of status events to live
// observer connections.
package broadcast

import (
	"log"
	"sync"

	"github.com/jonathan/dealbrief/internal/types"
)

// Conn is a live observer connection. *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Broadcaster maintains the mapping from deal id to the set of currently
// subscribed observer connections. Delivery is at-most-once and best-effort:
// events are sent to whoever is subscribed at the instant of publish, with
// no replay. A late subscriber reconstructs current state by reading the
// persisted deal record.
type Broadcaster struct {
	mu          sync.Mutex
	connections map[string]map[Conn]struct{}
}

// New creates an empty Broadcaster.
func New() *Broadcaster {
	return &Broadcaster{
		connections: make(map[string]map[Conn]struct{}),
	}
}

// Subscribe adds conn to the subscriber set for dealID.
func (b *Broadcaster) Subscribe(dealID string, conn Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.connections[dealID]
	if !ok {
		set = make(map[Conn]struct{})
		b.connections[dealID] = set
	}
	set[conn] = struct{}{}
}

// Unsubscribe removes conn from the subscriber set for dealID. The deal's
// entry is dropped entirely once its set is empty so the map never
// accumulates dead topics.
func (b *Broadcaster) Unsubscribe(dealID string, conn Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.connections[dealID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(b.connections, dealID)
	}
}

// SubscriberCount returns the number of live subscribers for a deal.
func (b *Broadcaster) SubscriberCount(dealID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.connections[dealID])
}

// Publish sends a status event to every current subscriber of dealID.
// A no-op when nobody is subscribed. The subscriber set is snapshotted
// before delivery and failed connections are pruned in one batch afterwards;
// the set is never mutated while being iterated.
func (b *Broadcaster) Publish(dealID string, status types.DealStatus, data any, errMsg string) {
	b.mu.Lock()
	set, ok := b.connections[dealID]
	if !ok {
		b.mu.Unlock()
		return
	}
	snapshot := make([]Conn, 0, len(set))
	for conn := range set {
		snapshot = append(snapshot, conn)
	}
	b.mu.Unlock()

	event := types.NewStatusEvent(dealID, status, data, errMsg)

	var dead []Conn
	for _, conn := range snapshot {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("[broadcast] dropping subscriber of deal %s: %v", dealID, err)
			dead = append(dead, conn)
		}
	}

	if len(dead) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok = b.connections[dealID]
	if !ok {
		return
	}
	for _, conn := range dead {
		delete(set, conn)
		_ = conn.Close()
	}
	if len(set) == 0 {
		delete(b.connections, dealID)
	}
}
