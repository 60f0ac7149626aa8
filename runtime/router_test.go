package runtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"concord/domain"
	"concord/domain/event"
	apperrors "concord/errors"
	"concord/moderation"
	"concord/observability"
	"concord/runtime/workers"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// memoryMessages is an in-memory stand-in for the badger repository. It
// assigns ids per channel the way the real store does and can be flipped
// into a failing mode.
type memoryMessages struct {
	mu      sync.Mutex
	nextID  map[domain.ChannelID]int64
	stored  []domain.Message
	failing bool
}

func newMemoryMessages() *memoryMessages {
	return &memoryMessages{nextID: make(map[domain.ChannelID]int64)}
}

func (m *memoryMessages) Append(cmd domain.PostMessageCommand) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return domain.Message{}, io.ErrClosedPipe
	}
	m.nextID[cmd.Channel]++
	message := domain.Message{
		ID:       m.nextID[cmd.Channel],
		Channel:  cmd.Channel,
		AuthorID: cmd.Author.ID,
		Text:     cmd.Text,
		At:       cmd.At,
	}
	m.stored = append(m.stored, message)
	return message, nil
}

func (m *memoryMessages) History(channelID domain.ChannelID, limit int) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.stored {
		if msg.Channel == channelID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memoryMessages) setFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

func (m *memoryMessages) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stored)
}

// captureSink records every event it consumes.
type captureSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *captureSink) Consume(_ context.Context, evt event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *captureSink) snapshot() []event.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.DomainEvent(nil), s.events...)
}

func (s *captureSink) storedMessages() []event.MessageStored {
	var out []event.MessageStored
	for _, evt := range s.snapshot() {
		if stored, ok := evt.(event.MessageStored); ok {
			out = append(out, stored)
		}
	}
	return out
}

func (s *captureSink) waitFor(t *testing.T, count int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if len(s.snapshot()) >= count {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d events, got %d", count, len(s.snapshot()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

type pipeline struct {
	router   *Router
	messages *memoryMessages
}

func startPipeline(t *testing.T) pipeline {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	moderator, err := moderation.NewModerator(nil, '*')
	require.NoError(t, err)

	messages := newMemoryMessages()
	router := NewRouter(log, workers.NewSupervisor(log, 10*time.Millisecond),
		NewRegistry(), messages, moderator,
		observability.NewMetrics(prometheus.NewRegistry()),
		64, time.Second)

	router.Start(context.Background())
	t.Cleanup(router.Stop)
	return pipeline{router: router, messages: messages}
}

func alice() domain.User {
	return domain.User{ID: uuid.NewString(), Username: "alice", DisplayName: "Alice"}
}

func TestRouter_Sender_Receives_Own_Message_Once(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sink := &captureSink{}
	channelID := domain.ChannelID(1)

	// Given a single subscribed member
	p.router.Subscribe(uuid.NewString(), channelID, sink)

	// When it sends one message
	req.NoError(p.router.Send(sink, alice(), channelID, "hello"))

	// Then exactly one copy comes back to it
	sink.waitFor(t, 1)
	time.Sleep(20 * time.Millisecond)
	stored := sink.storedMessages()
	req.Len(stored, 1)
	req.Equal("hello", stored[0].Message.Text)
	req.Equal("alice", stored[0].AuthorName)
}

func TestRouter_All_Members_Receive_In_Send_Order(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sender := &captureSink{}
	other := &captureSink{}
	outsider := &captureSink{}
	channelID := domain.ChannelID(1)

	p.router.Subscribe(uuid.NewString(), channelID, sender)
	p.router.Subscribe(uuid.NewString(), channelID, other)
	p.router.Subscribe(uuid.NewString(), domain.ChannelID(2), outsider)

	// When the sender posts three messages
	author := alice()
	for _, text := range []string{"first", "second", "third"} {
		req.NoError(p.router.Send(sender, author, channelID, text))
	}

	// Then both members see all three in order
	for _, member := range []*captureSink{sender, other} {
		member.waitFor(t, 3)
		stored := member.storedMessages()
		req.Len(stored, 3)
		req.Equal("first", stored[0].Message.Text)
		req.Equal("second", stored[1].Message.Text)
		req.Equal("third", stored[2].Message.Text)
		req.Less(stored[0].Message.ID, stored[1].Message.ID)
		req.Less(stored[1].Message.ID, stored[2].Message.ID)
	}

	// And the non-member sees nothing
	req.Empty(outsider.snapshot())
}

func TestRouter_Left_Member_Stops_Receiving(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sender := &captureSink{}
	leaver := &captureSink{}
	channelID := domain.ChannelID(1)
	leaverID := uuid.NewString()

	p.router.Subscribe(uuid.NewString(), channelID, sender)
	p.router.Subscribe(leaverID, channelID, leaver)

	// Given one delivered message
	req.NoError(p.router.Send(sender, alice(), channelID, "before"))
	leaver.waitFor(t, 1)

	// When the member leaves
	p.router.Unsubscribe(leaverID, channelID)
	req.NoError(p.router.Send(sender, alice(), channelID, "after"))
	sender.waitFor(t, 2)
	time.Sleep(20 * time.Millisecond)

	// Then the leaver only ever saw the first message
	stored := leaver.storedMessages()
	req.Len(stored, 1)
	req.Equal("before", stored[0].Message.Text)
}

func TestRouter_Disconnect_After_Send_Still_Delivers_To_Others(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sender := &captureSink{}
	other := &captureSink{}
	channelID := domain.ChannelID(1)
	senderID := uuid.NewString()

	p.router.Subscribe(senderID, channelID, sender)
	p.router.Subscribe(uuid.NewString(), channelID, other)

	// When the sender's connection drops right after an accepted send
	req.NoError(p.router.Send(sender, alice(), channelID, "parting words"))
	p.router.DropSession(senderID)

	// Then the remaining member still receives the persisted message
	other.waitFor(t, 1)
	stored := other.storedMessages()
	req.Len(stored, 1)
	req.Equal("parting words", stored[0].Message.Text)
	req.Equal(1, p.messages.count())
}

func TestRouter_Rejects_Without_Touching_The_Store(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sink := &captureSink{}
	p.router.Subscribe(uuid.NewString(), domain.ChannelID(1), sink)

	// When malformed sends arrive
	req.ErrorIs(p.router.Send(sink, alice(), domain.ChannelID(1), "   "), apperrors.ErrEmptyMessage)
	req.ErrorIs(p.router.Send(sink, alice(), 0, "hello"), apperrors.ErrMissingChannel)

	// Then nothing was stored and nothing was broadcast
	time.Sleep(50 * time.Millisecond)
	req.Zero(p.messages.count())
	req.Empty(sink.snapshot())
}

func TestRouter_Store_Failure_Reports_To_Sender_Only(t *testing.T) {
	req := require.New(t)
	p := startPipeline(t)
	sender := &captureSink{}
	other := &captureSink{}
	channelID := domain.ChannelID(1)

	p.router.Subscribe(uuid.NewString(), channelID, sender)
	p.router.Subscribe(uuid.NewString(), channelID, other)

	// Given a store that rejects every append
	p.messages.setFailing(true)

	// When a send goes through the pipeline
	req.NoError(p.router.Send(sender, alice(), channelID, "doomed"))
	sender.waitFor(t, 1)
	time.Sleep(20 * time.Millisecond)

	// Then the sender gets a failure event and nobody gets the message
	events := sender.snapshot()
	req.Len(events, 1)
	failed, ok := events[0].(event.SendFailed)
	req.True(ok)
	req.Equal(channelID, failed.Channel)
	req.Empty(other.snapshot())
	req.Zero(p.messages.count())

	// And the store recovers for later sends
	p.messages.setFailing(false)
	req.NoError(p.router.Send(sender, alice(), channelID, "revived"))
	other.waitFor(t, 1)
	req.Equal("revived", other.storedMessages()[0].Message.Text)
}

func TestRouter_Moderation_Censors_Before_Persisting(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	moderator, err := moderation.NewModerator([]string{"badword"}, '*')
	require.NoError(t, err)

	messages := newMemoryMessages()
	router := NewRouter(log, workers.NewSupervisor(log, 10*time.Millisecond),
		NewRegistry(), messages, moderator,
		observability.NewMetrics(prometheus.NewRegistry()),
		64, time.Second)
	router.Start(context.Background())
	t.Cleanup(router.Stop)

	sink := &captureSink{}
	channelID := domain.ChannelID(1)
	router.Subscribe(uuid.NewString(), channelID, sink)

	// When a send contains a censored word
	req.NoError(router.Send(sink, alice(), channelID, "this badword stays polite"))

	// Then both the stored and the delivered text are masked
	sink.waitFor(t, 1)
	stored := sink.storedMessages()
	req.Len(stored, 1)
	req.Equal("this ******* stays polite", stored[0].Message.Text)
	req.Equal(stored[0].Message.Text, messages.stored[0].Text)
}
