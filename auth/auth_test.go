package auth

import (
	"testing"
	"time"

	"chatnet/domain"
	"chatnet/errors"

	"github.com/stretchr/testify/require"
)

func Test_Password_Hash_And_Compare(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3rSecretPass")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	match, err := ComparePassword("Sup3rSecretPass", hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1", hash)
	req.NoError(err)
	req.False(match)
}

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-signing-key", time.Hour)

	account := domain.Account{
		ID:       "id-123",
		Username: "alice",
		Role:     domain.RoleAdmin,
	}

	token, err := manager.Generate(account)
	req.NoError(err)

	claims, err := manager.Validate(token)
	req.NoError(err)
	req.Equal("id-123", claims.UserID)
	req.Equal("alice", claims.Username)
	req.Equal(string(domain.RoleAdmin), claims.Role)
	req.False(claims.Guest)
}

func Test_Token_Wrong_Key(t *testing.T) {
	req := require.New(t)

	token, err := NewTokenManager("key-one", time.Hour).Generate(domain.Account{ID: "x"})
	req.NoError(err)

	_, err = NewTokenManager("key-two", time.Hour).Validate(token)
	req.Error(err)
}

func Test_Token_Expired(t *testing.T) {
	req := require.New(t)
	manager := NewTokenManager("test-signing-key", -time.Minute)

	token, err := manager.Generate(domain.Account{ID: "x"})
	req.NoError(err)

	_, err = manager.Validate(token)
	req.Error(err)
}

func Test_Register_Validation(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		description string
		username    string
		password    string
		wantErr     bool
	}{
		{"Should accept a complex password", "alice", "Sup3rSecretPass", false},
		{"Should reject a short password", "alice", "Ab1", true},
		{"Should reject a password without numbers", "alice", "OnlyLettersHere", true},
		{"Should reject a password without uppercase", "alice", "alllowercase123", true},
		{"Should reject a short username", "al", "Sup3rSecretPass", true},
		{"Should reject a username with symbols", "al!ce", "Sup3rSecretPass", true},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			err := ValidateRegister(RegisterRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func Test_Guest_Validation(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateGuest(GuestRequest{Username: "visitor42"}))
	req.Error(ValidateGuest(GuestRequest{Username: ""}))
	req.Error(ValidateGuest(GuestRequest{Username: "x"}))
}

func Test_Password_Complexity_Sentinel(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{Username: "alice", Password: "alllowercase123"})
	req.ErrorIs(err, errors.ErrInvalidPassword)
}
