package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Token is an issued bearer credential. It is never mutated; a caller who
// needs a fresh one logs in again.
type Token struct {
	Raw       string
	Subject   string
	Role      string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	// ExpiresAt is IssuedAt plus the TTL. IssuedAt is the issue time truncated
	// to the second, so ExpiresAt can fall up to a second before now+TTL.
	ExpiresAt time.Time
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
