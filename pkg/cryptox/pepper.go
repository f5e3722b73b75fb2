package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const pepperBytes = 32

// LoadOrCreatePepper reads the pepper from path, generating and persisting a
// new one on first start. An empty path yields an ephemeral pepper, which
// makes every stored hash unverifiable after a restart; only tests and
// throwaway dev runs should do that.
func LoadOrCreatePepper(path string) (string, error) {
	if path == "" {
		return newPepper()
	}

	path = filepath.Clean(path)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		p := strings.TrimSpace(string(raw))
		if p == "" {
			return "", fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		return p, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("cryptox: read pepper: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("cryptox: pepper dir: %w", err)
	}

	p, err := newPepper()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return "", fmt.Errorf("cryptox: write pepper: %w", err)
	}
	return p, nil
}

func newPepper() (string, error) {
	b := make([]byte, pepperBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("cryptox: generate pepper: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
