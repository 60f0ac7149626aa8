package workers

import (
	"context"
	"log/slog"

	"concord/domain/event"
	"concord/observability"
	"concord/repositories"
)

// PersistWorker is the single writer in front of the message store and
// the authority on per-channel order: appends complete one at a time, and
// the persisted record is handed to the fan-out stage in completion
// order. Nothing reaches subscribers before its append succeeded.
type PersistWorker struct {
	messages  repositories.IMessageRepository
	sanitized chan StoreRequest
	events    chan event.DomainEvent
	metrics   *observability.Metrics
	log       *slog.Logger
}

func NewPersistWorker(messages repositories.IMessageRepository,
	sanitized chan StoreRequest, events chan event.DomainEvent,
	metrics *observability.Metrics, log *slog.Logger) *PersistWorker {
	return &PersistWorker{
		messages:  messages,
		sanitized: sanitized,
		events:    events,
		metrics:   metrics,
		log:       log,
	}
}

func (w PersistWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case req, ok := <-w.sanitized:
			if !ok {
				w.log.Debug("Sanitized channel is closed")
				return nil
			}
			w.persist(ctx, req)
		}
	}
}

// persist appends the message and forwards the stored record to fan-out.
// An append failure is reported to the originating session only; no
// partial broadcast, no registry mutation. The append is never retried
// here, resubmitting is the caller's call.
func (w PersistWorker) persist(ctx context.Context, req StoreRequest) {
	message, err := w.messages.Append(req.Cmd)
	if err != nil {
		w.metrics.PersistFailures.Inc()
		w.log.Error("Store append failed",
			"channel", req.Cmd.Channel,
			"author", req.Cmd.Author.Username,
			"error", err)
		w.reportFailure(ctx, req)
		return
	}

	w.metrics.MessagesPersisted.Inc()

	stored := event.MessageStored{
		Message:       message,
		AuthorName:    req.Cmd.Author.Username,
		AuthorDisplay: req.Cmd.Author.DisplayName,
	}
	select {
	case <-ctx.Done():
	case w.events <- stored:
	}
}

func (w PersistWorker) reportFailure(ctx context.Context, req StoreRequest) {
	if req.Origin == nil {
		return
	}
	failed := event.SendFailed{Channel: req.Cmd.Channel, Reason: "message could not be saved"}
	if err := req.Origin.Consume(ctx, failed); err != nil {
		w.log.Debug("Sender gone before failure report", "channel", req.Cmd.Channel)
	}
}
