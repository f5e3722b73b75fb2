package cryptox_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/casedesk/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// fastParams keeps the suite quick; the format is identical to production.
var fastParams = cryptox.Argon2Params{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newHasher(t *testing.T, pepper string) *cryptox.PasswordHasher {
	t.Helper()
	h, err := cryptox.NewPasswordHasher(pepper, fastParams)
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newHasher(t, "pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"unicode password", "пароль🔒密码"},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"))
			require.Len(t, strings.Split(hash, "$"), 6)

			require.NoError(t, h.Verify(tt.password, hash))
		})
	}
}

func TestHashUsesUniqueSalts(t *testing.T) {
	h := newHasher(t, "pepper")

	a, err := h.Hash("samepassword")
	require.NoError(t, err)
	b, err := h.Hash("samepassword")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NoError(t, h.Verify("samepassword", a))
	require.NoError(t, h.Verify("samepassword", b))
}

func TestVerifyWrongPassword(t *testing.T) {
	h := newHasher(t, "pepper")
	hash, err := h.Hash("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", "correct-passwor"} {
		require.ErrorIs(t, h.Verify(wrong, hash), cryptox.ErrPasswordMismatch, "password %q", wrong)
	}
}

func TestVerifyDependsOnPepper(t *testing.T) {
	hash, err := newHasher(t, "pepper-one").Hash("secret")
	require.NoError(t, err)

	require.ErrorIs(t, newHasher(t, "pepper-two").Verify("secret", hash), cryptox.ErrPasswordMismatch)
}

func TestVerifyReadsParamsFromHash(t *testing.T) {
	old, err := cryptox.NewPasswordHasher("pepper", cryptox.Argon2Params{
		Memory: 32, Iterations: 2, Parallelism: 1, SaltLength: 8, KeyLength: 16,
	})
	require.NoError(t, err)
	hash, err := old.Hash("secret")
	require.NoError(t, err)

	require.NoError(t, newHasher(t, "pepper").Verify("secret", hash))
}

func TestVerifyInvalidHashFormat(t *testing.T) {
	h := newHasher(t, "pepper")

	for name, bad := range map[string]string{
		"empty hash":           "",
		"wrong algorithm":      "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"missing parts":        "$argon2id$v=19$m=19456",
		"malformed parameters": "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"invalid base64 salt":  "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA",
		"invalid base64 hash":  "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!",
		"wrong version":        "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, h.Verify("x", bad), cryptox.ErrInvalidHash)
		})
	}
}

func TestVerifyDummyAlwaysFails(t *testing.T) {
	h := newHasher(t, "pepper")
	require.ErrorIs(t, h.VerifyDummy("casedesk-dummy-password"), cryptox.ErrPasswordMismatch)
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	ephemeral, err := cryptox.LoadOrCreatePepper("")
	require.NoError(t, err)
	require.NotEqual(t, first, ephemeral)
}

func TestLoadOrCreatePepperRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := cryptox.LoadOrCreatePepper(path)
	require.Error(t, err)
}
