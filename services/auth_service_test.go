package services

import (
	"testing"
	"time"

	"chatnet/auth"
	"chatnet/errors"
	"chatnet/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (IAuthService, *repositories.AccountRepository, *memDenylist) {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	accounts := repositories.NewAccountRepository(db)
	denylist := newMemDenylist()
	tokens := auth.NewTokenManager("test-signing-key", time.Hour)
	return NewAuthService(accounts, denylist, tokens), accounts, denylist
}

func Test_Auth_Register_Then_Login(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture(t)

	token, err := service.Register("alice", "Sup3rSecretPass")
	req.NoError(err)
	req.NotEmpty(token)

	token, err = service.Login("alice", "Sup3rSecretPass")
	req.NoError(err)

	account, err := service.Identify(string(token))
	req.NoError(err)
	req.Equal("alice", account.Username)
	req.False(account.Guest)
}

func Test_Auth_Login_Failures_Stay_Generic(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture(t)

	_, err := service.Register("alice", "Sup3rSecretPass")
	req.NoError(err)

	// Wrong password and unknown user look identical to the caller
	_, err = service.Login("alice", "WrongPassword1")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
	_, err = service.Login("nobody", "Sup3rSecretPass")
	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func Test_Auth_Register_Rejects_Weak_Passwords(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture(t)

	_, err := service.Register("alice", "weak")
	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func Test_Auth_Banned_Accounts_Cannot_Login(t *testing.T) {
	req := require.New(t)
	service, accounts, denylist := newAuthFixture(t)

	_, err := service.Register("mallory", "Sup3rSecretPass")
	req.NoError(err)
	account, err := accounts.GetByUsername("mallory")
	req.NoError(err)

	req.NoError(denylist.Add(account.ID, "harassment"))

	_, err = service.Login("mallory", "Sup3rSecretPass")
	req.ErrorIs(err, errors.ErrBanned)
}

func Test_Auth_Ban_After_Token_Emission_Still_Blocks(t *testing.T) {
	req := require.New(t)
	service, accounts, denylist := newAuthFixture(t)

	token, err := service.Register("mallory", "Sup3rSecretPass")
	req.NoError(err)
	account, err := accounts.GetByUsername("mallory")
	req.NoError(err)

	// The ban lands while the token is still valid
	req.NoError(denylist.Add(account.ID, "harassment"))

	_, err = service.Identify(string(token))
	req.ErrorIs(err, errors.ErrBanned)
}

func Test_Auth_Guest_Tokens(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture(t)

	token, err := service.Guest("visitor42")
	req.NoError(err)

	account, err := service.Identify(string(token))
	req.NoError(err)
	req.True(account.Guest)
	req.Equal("visitor42", account.Username)

	// Guests cannot shadow a registered name
	_, err = service.Register("alice", "Sup3rSecretPass")
	req.NoError(err)
	_, err = service.Guest("alice")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}
