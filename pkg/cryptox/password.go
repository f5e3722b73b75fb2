package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch = errors.New("cryptox: password does not match")
	ErrInvalidHash      = errors.New("cryptox: invalid password hash")
)

// Argon2Params are the Argon2id cost parameters written into every hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultArgon2Params follows the OWASP baseline for Argon2id.
var DefaultArgon2Params = Argon2Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher produces and checks PHC-format Argon2id hashes. The pepper
// is appended to every password before hashing and never stored alongside
// the hash.
type PasswordHasher struct {
	pepper string
	params Argon2Params

	// dummy is verified against when the account does not exist so that
	// unknown usernames cost the same as wrong passwords.
	dummy string
}

func NewPasswordHasher(pepper string, params Argon2Params) (*PasswordHasher, error) {
	h := &PasswordHasher{pepper: pepper, params: params}

	dummy, err := h.Hash("casedesk-dummy-password")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy

	return h, nil
}

// Hash returns a PHC string: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: salt: %w", err)
	}

	key := argon2.IDKey([]byte(password+h.pepper), salt,
		h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks password against a hash produced by Hash. Parameters are
// read from the hash itself so older hashes keep verifying after the
// defaults change.
func (h *PasswordHasher) Verify(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return fmt.Errorf("%w: not an argon2id PHC string", ErrInvalidHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("%w: parameters: %w", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: key: %w", ErrInvalidHash, err)
	}

	got := argon2.IDKey([]byte(password+h.pepper), salt, iters, mem, par,
		uint32(len(want))) // #nosec G115 - key length comes from our own encoder

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// VerifyDummy burns the same work as a real Verify and always fails.
func (h *PasswordHasher) VerifyDummy(password string) error {
	_ = h.Verify(password, h.dummy)
	return ErrPasswordMismatch
}
