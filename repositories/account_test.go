package repositories

import (
	"testing"

	"chatnet/domain"
	"chatnet/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Account_Create_And_Lookup(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	created, err := repository.Create("alice", "hashed-secret")
	req.NoError(err)
	req.NotEmpty(created.ID)
	req.Equal(domain.RoleUser, created.Role)

	byName, err := repository.GetByUsername("alice")
	req.NoError(err)
	req.Equal(created.ID, byName.ID)
	req.Equal("hashed-secret", byName.PasswordHash)

	byID, err := repository.GetByID(created.ID)
	req.NoError(err)
	req.Equal("alice", byID.Username)
}

func Test_Account_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.Create("alice", "hash1")
	req.NoError(err)

	_, err = repository.Create("alice", "hash2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func Test_Account_Unknown_Lookups(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	_, err := repository.GetByUsername("nobody")
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = repository.GetByID("no-such-id")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func Test_Account_Put_Persists_Flags(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	account, err := repository.Create("alice", "hash")
	req.NoError(err)

	account.Banned = true
	account.Muted = true
	account.Role = domain.RoleAdmin
	req.NoError(repository.Put(account))

	stored, err := repository.GetByUsername("alice")
	req.NoError(err)
	req.True(stored.Banned)
	req.True(stored.Muted)
	req.Equal(domain.RoleAdmin, stored.Role)
}

func Test_Account_Put_Skips_Guests(t *testing.T) {
	req := require.New(t)
	repository := NewAccountRepository(openTestDB(t))

	guest := domain.NewGuestAccount("visitor")
	req.NoError(repository.Put(guest))

	// Guests never reach durable storage
	_, err := repository.GetByUsername("visitor")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
