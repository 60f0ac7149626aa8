package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"concord/contract"
	"concord/domain"
	"concord/domain/event"
	"concord/errors"
	"concord/moderation"
	"concord/observability"
	"concord/repositories"
	"concord/runtime/workers"
)

// Router is the coordinator tying persistence to fan-out. An accepted
// send travels moderation -> persist -> fan-out over buffered channels,
// each stage a single supervised goroutine, which keeps the
// persist-before-broadcast contract and per-channel ordering without
// locks on the hot path.
type Router struct {
	log         *slog.Logger
	supervisor  contract.ISupervisor
	registry    contract.IRegistry
	messages    repositories.IMessageRepository
	moderator   moderation.Moderator
	metrics     *observability.Metrics
	requests    chan workers.StoreRequest
	sanitized   chan workers.StoreRequest
	events      chan event.DomainEvent
	sinkTimeout time.Duration
}

func NewRouter(log *slog.Logger, supervisor contract.ISupervisor,
	registry contract.IRegistry, messages repositories.IMessageRepository,
	moderator moderation.Moderator, metrics *observability.Metrics,
	bufferSize int, sinkTimeout time.Duration) *Router {
	return &Router{
		log:         log,
		supervisor:  supervisor,
		registry:    registry,
		messages:    messages,
		moderator:   moderator,
		metrics:     metrics,
		requests:    make(chan workers.StoreRequest, bufferSize),
		sanitized:   make(chan workers.StoreRequest, bufferSize),
		events:      make(chan event.DomainEvent, bufferSize),
		sinkTimeout: sinkTimeout,
	}
}

// Send validates and accepts one message for channelID on behalf of the
// trusted author identity. Malformed sends are rejected here with no
// store interaction and no side effect. On acceptance the command is
// stamped with the server's current time and enqueued; the result comes
// back to the origin sink through the broadcast path (self-echo), or as a
// failure event if the store rejects the append.
func (r *Router) Send(origin contract.EventSink, author domain.User,
	channelID domain.ChannelID, text string) error {
	if channelID == 0 {
		return errors.ErrMissingChannel
	}
	if strings.TrimSpace(text) == "" {
		return errors.ErrEmptyMessage
	}

	req := workers.StoreRequest{
		Cmd: domain.PostMessageCommand{
			Channel: channelID,
			Author:  author,
			Text:    text,
			At:      time.Now().UTC(),
		},
		Origin: origin,
	}

	select {
	case r.requests <- req:
		return nil
	default:
		r.log.Warn("Request channel full, rejecting send", "channel", channelID)
		return errors.ErrServerBusy
	}
}

// Subscribe adds a connection to a channel's membership. No existence
// check is made against the channel directory; joining an unknown channel
// succeeds and simply never receives messages.
func (r *Router) Subscribe(connectionID string, channelID domain.ChannelID, sink contract.EventSink) {
	r.registry.Subscribe(connectionID, channelID, sink)
}

func (r *Router) Unsubscribe(connectionID string, channelID domain.ChannelID) {
	r.registry.Unsubscribe(connectionID, channelID)
}

func (r *Router) DropSession(connectionID string) {
	r.registry.DropSession(connectionID)
}

// Start registers the pipeline workers with the supervisor and launches
// them. The workers keep running until Stop or parent context
// cancellation; an in-flight send completes regardless of what happens to
// its originating connection.
func (r *Router) Start(ctx context.Context) {
	r.supervisor.Add(
		workers.NewModerationWorker(r.moderator, r.requests, r.sanitized, r.log),
		workers.NewPersistWorker(r.messages, r.sanitized, r.events, r.metrics, r.log),
		workers.NewFanoutWorker(r.registry, r.events, r.sinkTimeout, r.metrics, r.log),
	)

	r.log.Info("Starting broadcast router workers")
	r.supervisor.Run(ctx)
}

// Stop shuts the pipeline down and waits for the workers to drain.
func (r *Router) Stop() {
	r.log.Info("Requesting router shutdown")
	r.supervisor.Stop()
}
