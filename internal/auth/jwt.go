// Package auth issues and checks session tokens, hashes passwords and runs
// the GitHub sign-in flow.
//
// SESSION TOKENS:
// A session is a signed JWT carried in an HttpOnly cookie named "token".
// The token's Subject is the user's numeric ID in decimal. Nothing else about
// the user is stored in the token, so a profile change never needs a new
// token.
//
//	header.payload.signature
//	        │
//	        └─ {"sub":"42","iss":"social-pulse","iat":...,"exp":...}
//
// HS256 with a server-side secret is enough here: the same process issues
// and verifies every token.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "social-pulse"

// DefaultSessionTTL is used when NewTokenService gets a non-positive ttl.
const DefaultSessionTTL = 24 * time.Hour

// ErrInvalidToken wraps every validation failure.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and validates session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService rejects secrets shorter than 16 bytes.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime of issued tokens. The session cookie uses it as MaxAge.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a token for userID valid for the configured TTL.
func (s *TokenService) Generate(userID int64) (string, error) {
	return s.generate(userID, s.ttl)
}

func (s *TokenService) generate(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer and expiry and returns the user ID.
func (s *TokenService) Validate(tokenStr string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}
