package ws

import (
	"context"

	"concord/contract"
	"concord/domain/event"
)

// Sink is the buffered handoff between the fan-out worker and one
// session's write pump. Consume blocks only while the buffer is full and
// gives up when the fan-out delivery window closes, so one saturated
// connection cannot stall delivery to the rest.
type Sink struct {
	events chan event.DomainEvent
}

var _ contract.EventSink = (*Sink)(nil)

func NewSink(bufferSize int) *Sink {
	return &Sink{events: make(chan event.DomainEvent, bufferSize)}
}

func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is read by the owning session's write pump.
func (s *Sink) Events() <-chan event.DomainEvent {
	return s.events
}
