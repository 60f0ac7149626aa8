package ws

import (
	"concord/domain/event"

	"github.com/go-playground/validator/v10"
)

const (
	FrameJoinChannel  = "join_channel"
	FrameLeaveChannel = "leave_channel"
	FrameSendMessage  = "send_message"

	FrameMessage = "message"
	FrameError   = "error"
)

var validate = validator.New()

// ClientFrame is one inbound protocol message. All client frames are
// fire-and-forget; send_message indirectly produces a message frame back
// through the broadcast path.
type ClientFrame struct {
	Type      string `json:"type" validate:"required,oneof=join_channel leave_channel send_message"`
	ChannelID int64  `json:"channelId"`
	Text      string `json:"text,omitempty"`
}

func (f ClientFrame) Validate() error {
	return validate.Struct(f)
}

// ServerFrame is one outbound protocol message.
type ServerFrame struct {
	Type    string          `json:"type"`
	Message *MessagePayload `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// MessagePayload is the persisted message plus denormalized author
// display fields. Field names mirror the history endpoint rows.
type MessagePayload struct {
	ID            int64  `json:"id"`
	ChannelID     int64  `json:"channel_id"`
	AuthorID      string `json:"author_id"`
	Text          string `json:"text"`
	Ts            int64  `json:"ts"`
	AuthorName    string `json:"author_name"`
	AuthorDisplay string `json:"author_display"`
}

func messageFrame(stored event.MessageStored) ServerFrame {
	return ServerFrame{
		Type: FrameMessage,
		Message: &MessagePayload{
			ID:            stored.Message.ID,
			ChannelID:     int64(stored.Message.Channel),
			AuthorID:      stored.Message.AuthorID,
			Text:          stored.Message.Text,
			Ts:            stored.Message.At.UnixMilli(),
			AuthorName:    stored.AuthorName,
			AuthorDisplay: stored.AuthorDisplay,
		},
	}
}

func errorFrame(reason string) ServerFrame {
	return ServerFrame{Type: FrameError, Error: reason}
}
