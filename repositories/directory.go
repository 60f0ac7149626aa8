//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory_repository.go -package=mocks
package repositories

import (
	"crypto/rand"
	"fmt"

	"concord/domain"
	"concord/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// IDirectoryRepository stores the server/channel structure the live chat
// core routes against but never validates.
type IDirectoryRepository interface {
	CreateServer(name string) (domain.Server, error)
	ListServers() ([]domain.Server, error)
	CreateChannel(serverID int64, name string) (domain.Channel, error)
	ListChannels(serverID int64) ([]domain.Channel, error)
}

type DirectoryRepository struct {
	db *badger.DB
}

func NewDirectoryRepository(db *badger.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

type storedServer struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type storedChannel struct {
	ID       int64  `json:"id"`
	ServerID int64  `json:"server_id"`
	Name     string `json:"name"`
}

// CreateServer inserts a server with a fresh invite code and its default
// "general" channel in a single transaction.
func (d DirectoryRepository) CreateServer(name string) (domain.Server, error) {
	var server domain.Server
	err := d.db.Update(func(txn *badger.Txn) error {
		id, err := nextID(txn, "seq:server")
		if err != nil {
			return err
		}
		server = domain.Server{ID: id, Name: name, InviteCode: newInviteCode()}
		if err = putJSON(txn, fmt.Sprintf("server:%019d", id), fromServer(server)); err != nil {
			return err
		}

		channelID, err := nextID(txn, "seq:channel")
		if err != nil {
			return err
		}
		general := storedChannel{ID: channelID, ServerID: id, Name: "general"}
		return putJSON(txn, channelKey(id, channelID), general)
	})
	return server, err
}

func (d DirectoryRepository) ListServers() ([]domain.Server, error) {
	var servers []domain.Server
	err := d.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, "server:", func(val []byte) error {
			var stored storedServer
			if err := json.Unmarshal(val, &stored); err != nil {
				return err
			}
			servers = append(servers, toServer(stored))
			return nil
		})
	})
	return servers, err
}

func (d DirectoryRepository) CreateChannel(serverID int64, name string) (domain.Channel, error) {
	var channel domain.Channel
	err := d.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(fmt.Sprintf("server:%019d", serverID))); err != nil {
			return errors.ErrNotFound
		}
		id, err := nextID(txn, "seq:channel")
		if err != nil {
			return err
		}
		channel = domain.Channel{ID: domain.ChannelID(id), ServerID: serverID, Name: name}
		return putJSON(txn, channelKey(serverID, id), storedChannel{ID: id, ServerID: serverID, Name: name})
	})
	return channel, err
}

func (d DirectoryRepository) ListChannels(serverID int64) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := d.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, fmt.Sprintf("chan:%019d:", serverID), func(val []byte) error {
			var stored storedChannel
			if err := json.Unmarshal(val, &stored); err != nil {
				return err
			}
			channels = append(channels, domain.Channel{
				ID:       domain.ChannelID(stored.ID),
				ServerID: stored.ServerID,
				Name:     stored.Name,
			})
			return nil
		})
	})
	return channels, err
}

// Seed creates the default "Friends" server on first boot, mirroring an
// empty-database bootstrap. A non-empty directory is left untouched.
func (d DirectoryRepository) Seed() error {
	servers, err := d.ListServers()
	if err != nil {
		return err
	}
	if len(servers) > 0 {
		return nil
	}
	_, err = d.CreateServer("Friends")
	return err
}

func channelKey(serverID, channelID int64) string {
	return fmt.Sprintf("chan:%019d:%019d", serverID, channelID)
}

func putJSON(txn *badger.Txn, key string, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), bytes)
}

func scanPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	options := badger.DefaultIteratorOptions
	it := txn.NewIterator(options)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			return fn(append([]byte{}, val...))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newInviteCode() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf)
}

func fromServer(server domain.Server) storedServer {
	return storedServer{ID: server.ID, Name: server.Name, InviteCode: server.InviteCode}
}

func toServer(stored storedServer) domain.Server {
	return domain.Server{ID: stored.ID, Name: stored.Name, InviteCode: stored.InviteCode}
}
