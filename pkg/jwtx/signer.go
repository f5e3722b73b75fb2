package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the smallest shared secret we accept for HS256; anything
// shorter than the hash output weakens the MAC.
const MinSecretBytes = 32

// IssuerOptions configures an Issuer.
type IssuerOptions struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration // defaults to DefaultTokenTTL
}

// Issuer mints HS256 bearer tokens with a shared secret known only to the
// Issuer/Validator pair.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewIssuer validates the secret up front so a misconfigured process fails at
// startup instead of on the first login.
func NewIssuer(opts IssuerOptions) (*Issuer, error) {
	if err := checkSecret(opts.Secret); err != nil {
		return nil, err
	}

	ttl := opts.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("jwtx: token ttl must be positive, got %s", ttl)
	}

	return &Issuer{
		secret:   opts.Secret,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      ttl,
	}, nil
}

// TTL is the lifetime given to every token this Issuer mints.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a token for subjectID acting as role. NumericDate claims carry
// whole seconds, so now is truncated to the second before exp is derived.
func (i *Issuer) Issue(subjectID, role string, now time.Time) (Token, error) {
	if i == nil || len(i.secret) == 0 {
		return Token{}, ErrMissingSecret
	}

	now = now.UTC().Truncate(time.Second)
	claims := NewClaims(subjectID, role, i.issuer, i.audience, i.ttl, now)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := t.SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("jwtx: sign: %w", err)
	}

	return Token{
		Raw:       raw,
		Subject:   subjectID,
		Role:      role,
		Issuer:    i.issuer,
		Audience:  i.audience,
		IssuedAt:  now,
		ExpiresAt: now.Add(i.ttl),
	}, nil
}

func checkSecret(secret []byte) error {
	if len(secret) == 0 {
		return ErrMissingSecret
	}
	if len(secret) < MinSecretBytes {
		return fmt.Errorf("%w: need at least %d bytes, got %d", ErrWeakSecret, MinSecretBytes, len(secret))
	}
	return nil
}
