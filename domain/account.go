// Package domain contains core concepts of the chat network.
// This file defines durable account identities.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Account is the durable identity behind a connection.
// Guest accounts are never persisted and vanish with their session.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	Banned       bool
	Muted        bool
	Guest        bool
	CreatedAt    time.Time
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NewGuestAccount builds an ephemeral identity for an anonymous visitor.
func NewGuestAccount(username string) Account {
	return Account{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      RoleUser,
		Guest:     true,
		CreatedAt: time.Now().UTC(),
	}
}
