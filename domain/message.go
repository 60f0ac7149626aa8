package domain

import "time"

// Message is immutable once created. The ID is assigned by the store and
// is strictly increasing within a channel.
type Message struct {
	ID       int64
	Channel  ChannelID
	AuthorID string
	Text     string
	At       time.Time
}
