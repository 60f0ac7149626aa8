package auth

import (
	"context"
	"time"

	"concord/domain"
	"concord/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
// The chat core trusts these fields for the lifetime of a connection.
type CustomClaims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	jwt.RegisteredClaims
}

// IdentityProvider verifies a bearer credential and yields a stable user
// identity. The chat core consumes this interface; it never parses
// credentials itself.
type IdentityProvider interface {
	Verify(ctx context.Context, credential string) (domain.User, error)
}

// TokenManager signs and verifies HS256 JWTs. The signing key comes from
// configuration, never from source.
type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific user.
func (m *TokenManager) Generate(user domain.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "concord",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// Verify parses and validates the signature and expiration of a bearer
// credential. A missing credential and a bad one yield distinguishable
// errors, both terminal for the connection attempt.
func (m *TokenManager) Verify(_ context.Context, credential string) (domain.User, error) {
	if credential == "" {
		return domain.User{}, errors.ErrNoToken
	}

	token, err := jwt.ParseWithClaims(credential, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil {
		return domain.User{}, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return domain.User{}, errors.ErrInvalidToken
	}

	return domain.User{
		ID:          claims.UserID,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
	}, nil
}
