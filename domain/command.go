package domain

import "time"

type Command interface {
	ChannelID() ChannelID
}

// PostMessageCommand carries one accepted send through the pipeline.
// Author is the trusted identity of the originating session and At is the
// server receipt time, both stamped before the command is enqueued.
type PostMessageCommand struct {
	Channel ChannelID
	Author  User
	Text    string
	At      time.Time
}

func (c PostMessageCommand) ChannelID() ChannelID {
	return c.Channel
}
