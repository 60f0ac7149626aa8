package workers

import (
	"context"
	"log/slog"

	"concord/moderation"

	"github.com/abadojack/whatlanggo"
)

// ModerationWorker censors message text on its way to the store. It sits
// between send acceptance and persistence, so what gets persisted is what
// gets broadcast. Running as a single goroutine, it preserves the order
// in which sends were accepted.
type ModerationWorker struct {
	moderator moderation.Moderator
	requests  chan StoreRequest
	sanitized chan StoreRequest
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator,
	requests, sanitized chan StoreRequest, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		requests:  requests,
		sanitized: sanitized,
		log:       log,
	}
}

func (w ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case req, ok := <-w.requests:
			if !ok {
				w.log.Debug("Request channel is closed")
				return nil
			}

			censored, found := w.moderator.Censor(req.Cmd.Text)
			if len(found) > 0 {
				info := whatlanggo.Detect(req.Cmd.Text)
				w.log.Warn("Censored words in message",
					"author", req.Cmd.Author.Username,
					"channel", req.Cmd.Channel,
					"words", len(found),
					"lang", info.Lang.Iso6391())
				req.Cmd.Text = censored
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case w.sanitized <- req:
			}
		}
	}
}
