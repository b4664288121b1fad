/*
File: internal/auth/token.go
Description: Issues and verifies the channel-scoped, time-limited bearer
tokens that gate channel joins. Tokens are HS256-signed JWTs carrying
{id, channel, exp}; verification is a pure function of its inputs.
*/
// Package auth implements the hub's token authority.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Private claim names used on the wire.
const (
	claimSubject = "id"
	claimChannel = "channel"
)

var (
	// ErrSigning indicates an unrecoverable fault while encoding or signing
	// a token. Issue fails with nothing else.
	ErrSigning = errors.New("auth: token signing failed")

	// ErrExpiredToken is returned by Verify once wall-clock time has reached
	// the token's expiry. Expiry is never cached past the verification instant.
	ErrExpiredToken = errors.New("auth: token expired")

	// ErrMalformedToken covers parse failures and signature mismatches.
	ErrMalformedToken = errors.New("auth: malformed token")

	// ErrScopeMismatch is returned when a token's embedded channel scope does
	// not equal the channel being joined.
	ErrScopeMismatch = errors.New("auth: token not scoped to channel")
)

// Claims are the verified contents of a token. Immutable once issued; the
// server keeps no state about them (no revocation).
type Claims struct {
	Subject   string
	Channel   string
	ExpiresAt time.Time
}

// Authorize checks the claims' channel scope against the channel a bearer is
// attempting to join.
func (c Claims) Authorize(channel string) error {
	if c.Channel != channel {
		return fmt.Errorf("%w: scoped to %q, join requested for %q", ErrScopeMismatch, c.Channel, channel)
	}
	return nil
}

// Issue produces a signed token whose claims are {subject, channel, now+ttl}.
// A negative ttl produces an already-expired token; the issuer does not
// second-guess the caller.
func Issue(subject, channel string, secret []byte, ttl time.Duration) (string, error) {
	tok, err := jwt.NewBuilder().
		Claim(claimSubject, subject).
		Claim(claimChannel, channel).
		Expiration(time.Now().Add(ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return string(signed), nil
}

// Verify parses and validates a token against the shared secret. No clock-skew
// leeway is applied.
func Verify(token string, secret []byte) (Claims, error) {
	tok, err := jwt.Parse([]byte(token),
		jwt.WithKey(jwa.HS256, secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired()) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	claims := Claims{ExpiresAt: tok.Expiration()}
	if v, ok := tok.Get(claimSubject); ok {
		claims.Subject, _ = v.(string)
	}
	if v, ok := tok.Get(claimChannel); ok {
		claims.Channel, _ = v.(string)
	}
	return claims, nil
}
