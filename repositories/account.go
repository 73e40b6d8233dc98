//go:generate go run go.uber.org/mock/mockgen -source=account.go -destination=../mocks/mock_account_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"chatnet/domain"
	"chatnet/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IAccountRepository interface {
	Create(username, hashedPassword string) (domain.Account, error)
	GetByUsername(username string) (domain.Account, error)
	GetByID(id string) (domain.Account, error)
	Put(account domain.Account) error
}

type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// diskAccount is the stored representation of a durable account.
// Guests never reach this layer.
type diskAccount struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"password_hash"`
	Role         domain.Role `json:"role"`
	Banned       bool        `json:"banned"`
	Muted        bool        `json:"muted"`
	CreatedAt    int64       `json:"created_at"`
}

func accountKey(username string) []byte { return []byte("account:" + username) }
func accountIDKey(id string) []byte     { return []byte("account-id:" + id) }

// Create persists a new account. The username key is the primary
// record; a secondary id key resolves moderation ops by account id.
func (r *AccountRepository) Create(username, hashedPassword string) (domain.Account, error) {
	account := domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(fromAccount(account))
	if err != nil {
		return domain.Account{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(accountKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(accountKey(username), data); err != nil {
			return err
		}
		return txn.Set(accountIDKey(account.ID), []byte(username))
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) GetByUsername(username string) (domain.Account, error) {
	var disk diskAccount
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Account{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return toAccount(disk), nil
}

func (r *AccountRepository) GetByID(id string) (domain.Account, error) {
	var username string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountIDKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			username = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Account{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	return r.GetByUsername(username)
}

// Put overwrites the stored record, used to persist role, ban and mute
// flag changes.
func (r *AccountRepository) Put(account domain.Account) error {
	if account.Guest {
		return nil
	}
	data, err := json.Marshal(fromAccount(account))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(accountKey(account.Username), data); err != nil {
			return err
		}
		return txn.Set(accountIDKey(account.ID), []byte(account.Username))
	})
}

func fromAccount(a domain.Account) diskAccount {
	return diskAccount{
		ID:           a.ID,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		Banned:       a.Banned,
		Muted:        a.Muted,
		CreatedAt:    a.CreatedAt.Unix(),
	}
}

func toAccount(d diskAccount) domain.Account {
	return domain.Account{
		ID:           d.ID,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Banned:       d.Banned,
		Muted:        d.Muted,
		CreatedAt:    time.Unix(d.CreatedAt, 0).UTC(),
	}
}
