package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/IsbatBInHossain/chess-game-server/internal/dependencies/clock"
	"github.com/IsbatBInHossain/chess-game-server/internal/model"
)

// Claims is the token payload. Subject carries the principal id.
type Claims struct {
	jwt.RegisteredClaims
	Tier     model.Tier `json:"tier"`
	Username string     `json:"username,omitempty"`
}

// Principal extracts the principal described by the claims
func (c *Claims) Principal() model.Principal {
	return model.Principal{
		ID:       model.PrincipalID(c.Subject),
		Tier:     c.Tier,
		Username: c.Username,
	}
}

// TokenIssuer signs and verifies HS256 credentials
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

// NewTokenIssuer creates a token issuer. The secret must not be empty.
func NewTokenIssuer(secret, issuer string, ttl time.Duration, clk clock.Clock) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	return &TokenIssuer{
		key:    []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

// Issue signs a token for the principal
func (t *TokenIssuer) Issue(p model.Principal) (string, time.Time, error) {
	now := t.clock.Now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(p.ID),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Tier:     p.Tier,
		Username: p.Username,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry.
// Every failure is reported as ErrInvalidCredential.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if claims.Subject == "" || !claims.Tier.Valid() {
		return nil, ErrInvalidCredential
	}
	return &claims, nil
}
