// Package server verifies and mints the bearer tokens clients present during
// the WebSocket handshake.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// bearerPrefix is the conventional scheme marker clients may prepend to the
// token in the handshake frame. It is stripped before verification.
const bearerPrefix = "Bearer "

// Verification failures surfaced to the client as "Error: <message>".
// The decode failures share one message so the response does not reveal
// whether a token was malformed or carried a bad signature.
var (
	ErrTokenMalformed = errors.New("Failed to authenticate user")
	ErrTokenSignature = errors.New("Failed to authenticate user")
	ErrTokenExpired   = errors.New("Token expired, please relogin")
	ErrEmptySubject   = errors.New("Invalid token")
)

// TokenVerifier authenticates a bearer token and returns the username it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// jwtAuthority verifies and mints HS256 JWTs using the configured secret.
type jwtAuthority struct{}

// NewTokenVerifier returns the verifier used for WebSocket handshakes.
func NewTokenVerifier() TokenVerifier {
	return jwtAuthority{}
}

// Verify parses and validates a bearer token, stripping the optional scheme
// prefix first. On success it returns the token's subject.
func (jwtAuthority) Verify(token string) (string, error) {
	cfg := currentConfig()
	raw := strings.TrimPrefix(strings.TrimSpace(token), bearerPrefix)

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "", ErrTokenSignature
	default:
		return "", ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrEmptySubject
	}

	return claims.Subject, nil
}

// MintToken issues a signed token for the given username using the configured
// secret and expiry. It is called by the login handler after a successful
// password check.
func MintToken(username string) (string, error) {
	cfg := currentConfig()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}
