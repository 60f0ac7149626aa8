package runtime

import (
	"context"
	"testing"

	"concord/domain"
	"concord/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type nopSink struct{ name string }

func (s *nopSink) Consume(_ context.Context, _ event.DomainEvent) error {
	return nil
}

func TestRegistry_Subscribe_One_Channel_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	channelID := domain.ChannelID(1)
	sink := &nopSink{}

	// Given nobody is connected
	req.Empty(registry.sessions)
	req.Empty(registry.members)

	// When a session subscribes a channel
	registry.Subscribe(connectionID, channelID, sink)

	// Then it is the only delivery target
	sinks := registry.SinksFor(channelID)
	req.Len(sinks, 1)
	req.Contains(sinks, sink)
}

func TestRegistry_Snapshot_Has_No_Duplicates(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	channelID := domain.ChannelID(1)
	sink := &nopSink{}

	// When the same session subscribes a channel twice
	registry.Subscribe(connectionID, channelID, sink)
	registry.Subscribe(connectionID, channelID, sink)

	// Then membership is identical to a single subscribe
	req.Len(registry.SinksFor(channelID), 1)
}

func TestRegistry_Unsubscribe_Keeps_Other_Members(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := uuid.NewString()
	second := uuid.NewString()
	channelID := domain.ChannelID(1)
	sink1 := &nopSink{name: "one"}
	sink2 := &nopSink{name: "two"}

	registry.Subscribe(first, channelID, sink1)
	registry.Subscribe(second, channelID, sink2)

	// When one session unsubscribes
	registry.Unsubscribe(first, channelID)

	// Then only the other remains
	sinks := registry.SinksFor(channelID)
	req.Len(sinks, 1)
	req.Contains(sinks, sink2)
}

func TestRegistry_Unsubscribe_NonMember_Is_Noop(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	member := uuid.NewString()
	channelID := domain.ChannelID(1)
	registry.Subscribe(member, channelID, &nopSink{})

	// When a stranger unsubscribes
	registry.Unsubscribe(uuid.NewString(), channelID)

	// Then membership is unchanged
	req.Len(registry.SinksFor(channelID), 1)
}

func TestRegistry_DropSession_Leaves_Every_Channel(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	sink := &nopSink{}

	registry.Subscribe(connectionID, 1, sink)
	registry.Subscribe(connectionID, 2, sink)
	registry.Subscribe(connectionID, 3, sink)

	// When the session is dropped
	registry.DropSession(connectionID)

	// Then every channel forgets it and no empty sets linger
	req.Nil(registry.SinksFor(1))
	req.Nil(registry.SinksFor(2))
	req.Nil(registry.SinksFor(3))
	req.Empty(registry.sessions)
	req.Empty(registry.members)
	req.Empty(registry.joined)

	// And dropping again is harmless
	registry.DropSession(connectionID)
}

func TestRegistry_Empty_Channel_Yields_Zero_Deliveries(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Nil(registry.SinksFor(domain.ChannelID(404)))
}
