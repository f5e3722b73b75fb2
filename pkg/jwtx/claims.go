package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of a bearer token minted at login.
const DefaultTokenTTL = 2 * time.Hour

// Claim names are read through ordered candidate lists. Older clients of this
// system emitted the fully-qualified claim types, newer ones the short form,
// so a token is accepted if any candidate carries a non-empty string.
var (
	SubjectClaimNames = []string{
		"sub",
		"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	}

	RoleClaimNames = []string{
		"role",
		"http://schemas.microsoft.com/ws/2008/06/identity/claims/role",
	}
)

// Claims are the bearer token claims. A token carries at most one role; that
// role is the only one authorization ever looks at.
type Claims struct {
	jwt.RegisteredClaims

	Role string `json:"role,omitempty"`
}

// NewClaims builds minimally-correct claims for a subject acting as role.
func NewClaims(subject, role, issuer, audience string, ttl time.Duration, now time.Time) Claims {
	var aud jwt.ClaimStrings
	if audience != "" {
		aud = jwt.ClaimStrings{audience}
	}

	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// claimsFromMap lifts a decoded claim set into Claims, resolving subject and
// role through the candidate lists.
func claimsFromMap(m jwt.MapClaims) (Claims, error) {
	var c Claims
	var err error

	c.Subject = firstString(m, SubjectClaimNames)
	c.Role = firstString(m, RoleClaimNames)

	if c.Issuer, err = m.GetIssuer(); err != nil {
		return Claims{}, err
	}
	if c.Audience, err = m.GetAudience(); err != nil {
		return Claims{}, err
	}
	if c.ExpiresAt, err = m.GetExpirationTime(); err != nil {
		return Claims{}, err
	}
	if c.NotBefore, err = m.GetNotBefore(); err != nil {
		return Claims{}, err
	}
	if c.IssuedAt, err = m.GetIssuedAt(); err != nil {
		return Claims{}, err
	}
	if jti, ok := m["jti"].(string); ok {
		c.ID = jti
	}

	return c, nil
}

func firstString(m jwt.MapClaims, names []string) string {
	for _, name := range names {
		if v, ok := m[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrInvalidIssuerOrAudience
	}

	return nil
}

// ValidateAudience checks that the expected audience is present.
func (c *Claims) ValidateAudience(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if !slices.Contains(c.Audience, expected) {
		return ErrInvalidIssuerOrAudience
	}

	return nil
}

// ValidateExpiry ensures exp is strictly after now and nbf is not after now.
// A token without exp is never accepted; every credential here is
// time-bounded.
func (c *Claims) ValidateExpiry(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrExpired
	}

	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
