//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"concord/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type IUserRepository interface {
	CreateUser(username, displayName, hashedPassword string) (User, error)
	GetUserByUsername(username string) (User, error)
	GetUserByID(id string) (User, error)
}

// User is the repository-level representation of an account, including
// credential material that must never leave the auth layer.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// CreateUser persists a new account. The username key doubles as the
// uniqueness check; a secondary id index supports author lookups when
// denormalizing message records.
func (u UserRepository) CreateUser(username, displayName, hashedPassword string) (User, error) {
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte("user:name:" + username)
		if _, err = txn.Get(nameKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err = txn.Set(nameKey, data); err != nil {
			return err
		}
		return txn.Set([]byte("user:id:"+user.ID), []byte(username))
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUserByUsername(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:name:" + username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if err != nil {
		return User{}, errors.ErrNotFound
	}
	return user, nil
}

func (u UserRepository) GetUserByID(id string) (User, error) {
	var username string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("user:id:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			username = string(val)
			return nil
		})
	})
	if err != nil {
		return User{}, errors.ErrNotFound
	}
	return u.GetUserByUsername(username)
}
