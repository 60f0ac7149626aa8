//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"concord/contract"
	"concord/domain"
	"concord/repositories"
	"concord/runtime"

	"github.com/samber/lo"
)

// MessageRecord is a persisted message joined with the author's display
// data, as delivered to clients over both the live path and the history
// endpoint.
type MessageRecord struct {
	Message       domain.Message
	AuthorName    string
	AuthorDisplay string
}

type IChatService interface {
	Send(origin contract.EventSink, author domain.User, channelID domain.ChannelID, text string) error
	Join(connectionID string, channelID domain.ChannelID, sink contract.EventSink)
	Leave(connectionID string, channelID domain.ChannelID)
	Disconnect(connectionID string)
	History(channelID domain.ChannelID) ([]MessageRecord, error)
}

type ChatService struct {
	router       *runtime.Router
	messages     repositories.IMessageRepository
	users        repositories.IUserRepository
	historyLimit int
}

func NewChatService(router *runtime.Router, messages repositories.IMessageRepository,
	users repositories.IUserRepository, historyLimit int) *ChatService {
	return &ChatService{
		router:       router,
		messages:     messages,
		users:        users,
		historyLimit: historyLimit,
	}
}

func (s *ChatService) Send(origin contract.EventSink, author domain.User,
	channelID domain.ChannelID, text string) error {
	return s.router.Send(origin, author, channelID, text)
}

func (s *ChatService) Join(connectionID string, channelID domain.ChannelID, sink contract.EventSink) {
	s.router.Subscribe(connectionID, channelID, sink)
}

func (s *ChatService) Leave(connectionID string, channelID domain.ChannelID) {
	s.router.Unsubscribe(connectionID, channelID)
}

func (s *ChatService) Disconnect(connectionID string) {
	s.router.DropSession(connectionID)
}

// History reads the most recent page of a channel's log in ascending id
// order and joins minimal author display data. Authors deleted since they
// wrote keep their id but lose display fields.
func (s *ChatService) History(channelID domain.ChannelID) ([]MessageRecord, error) {
	messages, err := s.messages.History(channelID, s.historyLimit)
	if err != nil {
		return nil, err
	}

	// Resolve each distinct author once per page.
	authors := make(map[string]repositories.User)
	for _, message := range messages {
		if _, ok := authors[message.AuthorID]; ok {
			continue
		}
		if user, err := s.users.GetUserByID(message.AuthorID); err == nil {
			authors[message.AuthorID] = user
		}
	}

	return lo.Map(messages, func(message domain.Message, _ int) MessageRecord {
		author := authors[message.AuthorID]
		return MessageRecord{
			Message:       message,
			AuthorName:    author.Username,
			AuthorDisplay: author.DisplayName,
		}
	}), nil
}
