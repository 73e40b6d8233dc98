package auth

import (
	"time"

	"chatnet/domain"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Guest    bool   `json:"guest"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates connection tokens. The signing key
// comes from configuration, never from source.
type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(key string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(key), duration: duration}
}

// Generate creates a signed JWT for an account.
func (m *TokenManager) Generate(account domain.Account) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:   account.ID,
		Username: account.Username,
		Role:     string(account.Role),
		Guest:    account.Guest,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chatnet",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Validate parses and validates the signature and expiration of a JWT.
func (m *TokenManager) Validate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
