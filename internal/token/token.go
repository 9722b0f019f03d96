// Package token signs and verifies the HS256 access tokens handed to clients.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the access token lifetime when none is configured.
const DefaultTTL = 30 * time.Minute

// Verification errors.
var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrMalformed        = errors.New("token is malformed")
)

// The only algorithm issued and accepted.
var signingMethod = jwt.SigningMethodHS256

// Claims is the payload of an access token: {"user_id", "sub", "exp"}.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Config is the issuer's key material. Secret is read-only after construction.
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Issuer mints and checks access tokens. It holds no mutable state.
type Issuer struct {
	key []byte
	ttl time.Duration
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token signing secret must be provided")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	key := make([]byte, len(cfg.Secret))
	copy(key, cfg.Secret)
	return &Issuer{key: key, ttl: ttl}, nil
}

// TTL is the configured lifetime for new tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs {sub, user_id, exp: now+ttl}. Identical inputs produce an
// identical token. exp has one-second precision.
func (i *Issuer) Issue(subject string, userID int64, now time.Time, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then expiry against now. A token is valid
// only while now < exp. Any header algorithm other than HS256 is rejected
// with ErrInvalidSignature.
func (i *Issuer) Verify(raw string, now time.Time) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &Claims{}
	tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != signingMethod {
			return nil, ErrInvalidSignature
		}
		return i.key, nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !tok.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	default:
		return ErrMalformed
	}
}
