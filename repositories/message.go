//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"log/slog"
	"time"

	"concord/domain"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
)

// IMessageRepository is the durable, append-only per-channel log the
// broadcast pipeline depends on.
type IMessageRepository interface {
	Append(cmd domain.PostMessageCommand) (domain.Message, error)
	History(channelID domain.ChannelID, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// storedMessage is the on-disk representation of a message.
type storedMessage struct {
	ID       int64  `json:"id"`
	Channel  int64  `json:"channel_id"`
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
	At       int64  `json:"at"` // unix nanoseconds, UTC
}

// Append persists one message and returns it with its store-assigned id.
//
// The id is a per-channel counter bumped inside the same transaction as the
// insert, so ids are strictly increasing in the order appends are accepted
// and two concurrent appends can never share one. The message key is
// formatted as "msg:{channel_id}:{id_padded}" with 19-digit zero padding so
// a plain prefix scan yields messages in id order.
func (m MessageRepository) Append(cmd domain.PostMessageCommand) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		id, err := nextID(txn, fmt.Sprintf("seq:msg:%d", cmd.Channel))
		if err != nil {
			return err
		}

		message = domain.Message{
			ID:       id,
			Channel:  cmd.Channel,
			AuthorID: cmd.Author.ID,
			Text:     cmd.Text,
			At:       cmd.At,
		}

		bytes, err := json.Marshal(fromMessage(message))
		if err != nil {
			return err
		}
		key := fmt.Sprintf("msg:%d:%019d", cmd.Channel, id)
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append to channel %d: %w", cmd.Channel, err)
	}
	return message, nil
}

// History returns up to limit most-recent messages for a channel in
// ascending id order. Thanks to the padded id in the key, a reverse prefix
// scan finds the newest entries first; the slice is flipped before return.
func (m MessageRepository) History(channelID domain.ChannelID, limit int) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%d:", channelID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the last possible key of the prefix, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				m.log.Debug(fmt.Sprintf("History limit of %d messages reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var stored storedMessage
		if err = json.Unmarshal(raw[i], &stored); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(stored))
	}
	return messages, nil
}

// nextID bumps a counter key inside the caller's transaction.
func nextID(txn *badger.Txn, key string) (int64, error) {
	var current int64
	item, err := txn.Get([]byte(key))
	switch err {
	case nil:
		err = item.Value(func(value []byte) error {
			return json.Unmarshal(value, &current)
		})
		if err != nil {
			return 0, err
		}
	case badger.ErrKeyNotFound:
		current = 0
	default:
		return 0, err
	}

	next := current + 1
	bytes, err := json.Marshal(next)
	if err != nil {
		return 0, err
	}
	return next, txn.Set([]byte(key), bytes)
}

func fromMessage(message domain.Message) storedMessage {
	return storedMessage{
		ID:       message.ID,
		Channel:  int64(message.Channel),
		AuthorID: message.AuthorID,
		Text:     message.Text,
		At:       message.At.UnixNano(),
	}
}

func toMessage(stored storedMessage) domain.Message {
	return domain.Message{
		ID:       stored.ID,
		Channel:  domain.ChannelID(stored.Channel),
		AuthorID: stored.AuthorID,
		Text:     stored.Text,
		At:       time.Unix(0, stored.At).UTC(),
	}
}
