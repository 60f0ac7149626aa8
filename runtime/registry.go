// Package runtime wires the live broadcast path: channel membership,
// the send pipeline, and the supervised workers behind it. It carries no
// domain rules of its own.
package runtime

import (
	"sync"

	"concord/contract"
	"concord/domain"
)

type Set map[string]struct{}

// Registry tracks, per channel, the set of live sessions currently
// subscribed, plus the inverse view needed to tear a session down. It is
// an explicit object owned by the server wiring, never a package-level
// singleton, and is the only structure mutated by many connections at
// once.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink // connection id -> sink
	members  map[domain.ChannelID]Set      // channel -> connection ids
	joined   map[string]map[domain.ChannelID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
		members:  make(map[domain.ChannelID]Set),
		joined:   make(map[string]map[domain.ChannelID]struct{}),
	}
}

// SinksFor returns a point-in-time snapshot of the delivery targets for a
// channel. The snapshot reflects membership at the moment of the call and
// never contains stale or duplicate entries. An unknown channel yields nil.
func (r *Registry) SinksFor(channelID domain.ChannelID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.members[channelID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(ids))
	for connectionID := range ids {
		if sink, exists := r.sessions[connectionID]; exists {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}

// Subscribe registers a connection's sink and adds it to a channel's
// membership set. Subscribing a connection to a channel it already joined
// is a no-op, which makes join idempotent at the transport layer.
func (r *Registry) Subscribe(connectionID string, channelID domain.ChannelID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connectionID] = sink

	if _, ok := r.members[channelID]; !ok {
		r.members[channelID] = make(Set)
	}
	r.members[channelID][connectionID] = struct{}{}

	if _, ok := r.joined[connectionID]; !ok {
		r.joined[connectionID] = make(map[domain.ChannelID]struct{})
	}
	r.joined[connectionID][channelID] = struct{}{}
}

// Unsubscribe removes a connection from one channel. The session itself
// stays registered until DropSession. Empty membership sets are removed
// so the maps do not grow with dead channels.
func (r *Registry) Unsubscribe(connectionID string, channelID domain.ChannelID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMember(connectionID, channelID)
}

// DropSession removes a connection from every channel it joined and
// forgets its sink. Calling it twice is harmless; transports may signal
// loss redundantly.
func (r *Registry) DropSession(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID := range r.joined[connectionID] {
		r.removeMember(connectionID, channelID)
	}
	delete(r.joined, connectionID)
	delete(r.sessions, connectionID)
}

func (r *Registry) removeMember(connectionID string, channelID domain.ChannelID) {
	if ids, ok := r.members[channelID]; ok {
		delete(ids, connectionID)
		if len(ids) == 0 {
			delete(r.members, channelID)
		}
	}
	if channels, ok := r.joined[connectionID]; ok {
		delete(channels, channelID)
	}
}
