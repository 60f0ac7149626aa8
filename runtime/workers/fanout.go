package workers

import (
	"context"
	"log/slog"
	"time"

	"concord/contract"
	"concord/domain/event"
	"concord/observability"
)

// FanoutWorker delivers each persisted record to every session subscribed
// to its channel at the moment of broadcast, sender included. Delivery to
// N members is fan-out, not N independent sends: one unreachable member
// is logged and skipped, never blocking or rolling back the others.
type FanoutWorker struct {
	registry    contract.IRegistry
	events      chan event.DomainEvent
	sinkTimeout time.Duration
	metrics     *observability.Metrics
	log         *slog.Logger
}

func NewFanoutWorker(registry contract.IRegistry, events chan event.DomainEvent,
	sinkTimeout time.Duration, metrics *observability.Metrics, log *slog.Logger) *FanoutWorker {
	return &FanoutWorker{
		registry:    registry,
		events:      events,
		sinkTimeout: sinkTimeout,
		metrics:     metrics,
		log:         log,
	}
}

func (w FanoutWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Event channel is closed")
				return nil
			}
			w.fanout(ctx, evt)
		}
	}
}

func (w FanoutWorker) fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.registry.SinksFor(evt.ChannelID())
	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		err := sink.Consume(sinkCtx, evt)
		cancel()

		if err != nil {
			w.metrics.DeliveryDrops.Inc()
			w.log.Warn("Delivery to one member failed",
				"channel", evt.ChannelID(),
				"error", err)
			continue
		}
		w.metrics.Deliveries.Inc()
	}
}
