package event

import (
	"concord/domain"
)

// DomainEvent is anything the fan-out worker can route to channel members.
type DomainEvent interface {
	ChannelID() domain.ChannelID
}

// MessageStored is emitted once a message has been durably appended.
// It carries the fully persisted record plus the denormalized author
// display fields delivered to subscribers.
type MessageStored struct {
	Message       domain.Message
	AuthorName    string
	AuthorDisplay string
}

func (m MessageStored) ChannelID() domain.ChannelID {
	return m.Message.Channel
}

// SendFailed is delivered to the originating session only, when the store
// rejected the append. Nothing is broadcast in that case.
type SendFailed struct {
	Channel domain.ChannelID
	Reason  string
}

func (s SendFailed) ChannelID() domain.ChannelID {
	return s.Channel
}
