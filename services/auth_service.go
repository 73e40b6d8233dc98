package services

import (
	"fmt"

	"chatnet/auth"
	"chatnet/contract"
	"chatnet/domain"
	"chatnet/errors"
	"chatnet/repositories"
)

type IAuthService interface {
	Register(username, password string) (Token, error)
	Login(username, password string) (Token, error)
	Guest(username string) (Token, error)
	Identify(token string) (domain.Account, error)
}

type AuthService struct {
	accounts repositories.IAccountRepository
	denylist contract.Denylist
	tokens   *auth.TokenManager
}

type Token string

func NewAuthService(accounts repositories.IAccountRepository,
	denylist contract.Denylist, tokens *auth.TokenManager) IAuthService {
	return &AuthService{
		accounts: accounts,
		denylist: denylist,
		tokens:   tokens,
	}
}

func (s *AuthService) Register(username, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Username: username,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer so the repository never sees a plain
	// password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	account, err := s.accounts.Create(username, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the name is taken
	}

	token, err := s.tokens.Generate(account)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AuthService) Login(username, password string) (Token, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	// The denylist outlives the account flags; it is the authority.
	banned, err := s.denylist.Contains(account.ID)
	if err != nil {
		return "", err
	}
	if banned {
		return "", errors.ErrBanned
	}

	token, err := s.tokens.Generate(account)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Guest issues a token for an ephemeral account. Guests never touch
// durable storage and carry a message budget enforced at post time.
func (s *AuthService) Guest(username string) (Token, error) {
	if err := auth.ValidateGuest(auth.GuestRequest{Username: username}); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidCredentials, err)
	}

	// A guest may not shadow a registered username.
	if _, err := s.accounts.GetByUsername(username); err == nil {
		return "", errors.ErrUserAlreadyExists
	}

	account := domain.NewGuestAccount(username)
	token, err := s.tokens.Generate(account)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

// Identify resolves a connection token back to an account snapshot and
// re-checks the denylist, so a ban issued after token emission still
// blocks the connect.
func (s *AuthService) Identify(token string) (domain.Account, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return domain.Account{}, errors.ErrInvalidCredentials
	}

	banned, err := s.denylist.Contains(claims.UserID)
	if err != nil {
		return domain.Account{}, err
	}
	if banned {
		return domain.Account{}, errors.ErrBanned
	}

	if claims.Guest {
		return domain.Account{
			ID:       claims.UserID,
			Username: claims.Username,
			Role:     domain.Role(claims.Role),
			Guest:    true,
		}, nil
	}
	return s.accounts.GetByID(claims.UserID)
}
