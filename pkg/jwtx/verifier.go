package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSecret = errors.New("jwtx: signing secret not configured")
	ErrWeakSecret    = errors.New("jwtx: signing secret too short")

	ErrMissingToken            = errors.New("jwtx: missing token")
	ErrMalformed               = errors.New("jwtx: malformed token")
	ErrInvalidSignature        = errors.New("jwtx: invalid signature")
	ErrExpired                 = errors.New("jwtx: token expired")
	ErrNotYetValid             = errors.New("jwtx: token not yet valid")
	ErrInvalidIssuerOrAudience = errors.New("jwtx: issuer or audience mismatch")
)

// ValidatorOptions configures a Validator.
type ValidatorOptions struct {
	Secret   []byte
	Issuer   string
	Audience string

	// RelaxIssuerAudience skips the iss/aud comparison. Only meant for
	// isolated non-production runs; the app refuses it in prod.
	RelaxIssuerAudience bool
}

// Validator verifies HS256 bearer tokens and turns them into Principals. It
// holds no mutable state and is safe for concurrent use.
type Validator struct {
	secret   []byte
	issuer   string
	audience string
	relaxed  bool
	parser   *jwt.Parser
}

func NewValidator(opts ValidatorOptions) (*Validator, error) {
	if err := checkSecret(opts.Secret); err != nil {
		return nil, err
	}

	return &Validator{
		secret:   opts.Secret,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		relaxed:  opts.RelaxIssuerAudience,
		// Time and iss/aud checks are done below against the caller's clock
		// and in a fixed order, so the library only verifies the signature.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Validate checks signature, then expiry, then issuer/audience. Any failure
// yields an unauthenticated Principal along with the reason, so callers can
// branch on Principal.Authenticated without special-casing errors.
func (v *Validator) Validate(raw string, now time.Time) (Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Anonymous(), ErrMissingToken
	}

	m := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(raw, m, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Anonymous(), fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return Anonymous(), fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	claims, err := claimsFromMap(m)
	if err != nil {
		return Anonymous(), fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := claims.ValidateExpiry(now); err != nil {
		return Anonymous(), err
	}

	if !v.relaxed {
		if err := claims.ValidateIssuer(v.issuer); err != nil {
			return Anonymous(), err
		}
		if err := claims.ValidateAudience(v.audience); err != nil {
			return Anonymous(), err
		}
	}

	if claims.Subject == "" {
		return Anonymous(), fmt.Errorf("%w: no subject claim", ErrMalformed)
	}

	return Principal{
		SubjectID:     claims.Subject,
		Role:          claims.Role,
		Authenticated: true,
	}, nil
}
