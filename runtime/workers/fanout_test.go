package workers

import (
	"context"
	"testing"
	"time"

	"concord/contract"
	"concord/domain"
	"concord/domain/event"
	"concord/mocks"
	"concord/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func storedEvent(channelID domain.ChannelID, text string) event.MessageStored {
	return event.MessageStored{
		Message: domain.Message{
			ID:      1,
			Channel: channelID,
			Text:    text,
			At:      time.Now().UTC(),
		},
		AuthorName: "alice",
	}
}

func TestFanout_Delivers_To_Every_Subscribed_Sink(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	channelID := domain.ChannelID(7)
	evt := storedEvent(channelID, "hello")

	delivered := make(chan event.DomainEvent, 2)
	consume := func(ctx context.Context, e event.DomainEvent) error {
		delivered <- e
		return nil
	}

	first := mocks.NewMockEventSink(ctrl)
	first.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(consume).Times(1)
	second := mocks.NewMockEventSink(ctrl)
	second.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(consume).Times(1)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(channelID).
		Return([]contract.EventSink{first, second}).
		Times(1)

	events := make(chan event.DomainEvent, 1)
	worker := NewFanoutWorker(registry, events, time.Second,
		observability.NewMetrics(prometheus.NewRegistry()), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	// When one persisted message goes to fan-out
	events <- evt

	// Then both members receive it
	for range 2 {
		select {
		case got := <-delivered:
			req.Equal(evt, got)
		case <-time.After(time.Second):
			req.Fail("expected delivery to both sinks")
		}
	}
}

func TestFanout_One_Failing_Sink_Does_Not_Block_Others(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	channelID := domain.ChannelID(7)
	evt := storedEvent(channelID, "hello")

	// Given the first sink is gone and the second is healthy
	dead := mocks.NewMockEventSink(ctrl)
	dead.EXPECT().Consume(gomock.Any(), evt).
		Return(context.Canceled).
		Times(1)

	delivered := make(chan event.DomainEvent, 1)
	healthy := mocks.NewMockEventSink(ctrl)
	healthy.EXPECT().Consume(gomock.Any(), evt).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			delivered <- e
			return nil
		}).
		Times(1)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(channelID).
		Return([]contract.EventSink{dead, healthy}).
		Times(1)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	events := make(chan event.DomainEvent, 1)
	worker := NewFanoutWorker(registry, events, time.Second, metrics, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	events <- evt

	// Then the healthy sink still gets the message
	select {
	case got := <-delivered:
		req.Equal(evt, got)
	case <-time.After(time.Second):
		req.Fail("failing sibling should not block delivery")
	}
}

func TestFanout_Slow_Sink_Is_Dropped_After_Timeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	channelID := domain.ChannelID(7)
	evt := storedEvent(channelID, "hello")

	// Given a sink stuck until its delivery context expires
	done := make(chan struct{})
	stuck := mocks.NewMockEventSink(ctrl)
	stuck.EXPECT().Consume(gomock.Any(), evt).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			<-ctx.Done()
			close(done)
			return ctx.Err()
		}).
		Times(1)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().SinksFor(channelID).
		Return([]contract.EventSink{stuck}).
		Times(1)

	events := make(chan event.DomainEvent, 1)
	worker := NewFanoutWorker(registry, events, 20*time.Millisecond,
		observability.NewMetrics(prometheus.NewRegistry()), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	events <- evt

	// Then the delivery attempt ends on its own timeout
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("delivery should time out instead of hanging")
	}
}
