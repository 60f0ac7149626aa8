package services

import (
	"testing"
	"time"

	"concord/domain"

	"github.com/stretchr/testify/require"
)

type staticMessages struct {
	messages []domain.Message
}

func (s *staticMessages) Append(cmd domain.PostMessageCommand) (domain.Message, error) {
	message := domain.Message{
		ID:       int64(len(s.messages) + 1),
		Channel:  cmd.Channel,
		AuthorID: cmd.Author.ID,
		Text:     cmd.Text,
		At:       cmd.At,
	}
	s.messages = append(s.messages, message)
	return message, nil
}

func (s *staticMessages) History(channelID domain.ChannelID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	for _, message := range s.messages {
		if message.Channel == channelID {
			out = append(out, message)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func TestChatService_History_Joins_Author_Display_Data(t *testing.T) {
	req := require.New(t)
	users := newMemoryUsers()
	alice, err := users.CreateUser("alice", "Alice", "hash")
	req.NoError(err)
	bob, err := users.CreateUser("bob", "Bob", "hash")
	req.NoError(err)

	channelID := domain.ChannelID(1)
	messages := &staticMessages{}
	now := time.Now().UTC()
	for _, post := range []struct {
		authorID string
		text     string
	}{
		{alice.ID, "hi"},
		{bob.ID, "hey"},
		{alice.ID, "how are you"},
	} {
		_, err := messages.Append(domain.PostMessageCommand{
			Channel: channelID,
			Author:  domain.User{ID: post.authorID},
			Text:    post.text,
			At:      now,
		})
		req.NoError(err)
	}

	service := NewChatService(nil, messages, users, 1000)

	// When the channel history is read
	records, err := service.History(channelID)

	// Then messages come back ascending with their author names joined
	req.NoError(err)
	req.Len(records, 3)
	req.Equal("hi", records[0].Message.Text)
	req.Equal("alice", records[0].AuthorName)
	req.Equal("Alice", records[0].AuthorDisplay)
	req.Equal("bob", records[1].AuthorName)
	req.Equal("alice", records[2].AuthorName)
}

func TestChatService_History_Tolerates_Deleted_Authors(t *testing.T) {
	req := require.New(t)
	users := newMemoryUsers()
	messages := &staticMessages{}
	channelID := domain.ChannelID(1)

	// Given a message whose author no longer resolves
	_, err := messages.Append(domain.PostMessageCommand{
		Channel: channelID,
		Author:  domain.User{ID: "gone"},
		Text:    "orphan",
		At:      time.Now().UTC(),
	})
	req.NoError(err)

	service := NewChatService(nil, messages, users, 1000)

	records, err := service.History(channelID)

	// Then the message survives with empty display fields
	req.NoError(err)
	req.Len(records, 1)
	req.Equal("orphan", records[0].Message.Text)
	req.Empty(records[0].AuthorName)
	req.Empty(records[0].AuthorDisplay)
}

func TestChatService_History_Empty_Channel(t *testing.T) {
	req := require.New(t)
	service := NewChatService(nil, &staticMessages{}, newMemoryUsers(), 1000)

	records, err := service.History(domain.ChannelID(42))

	req.NoError(err)
	req.Empty(records)
}
