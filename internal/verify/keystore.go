package verify

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	keyDirName  = ".g3"
	keyFileName = "verification.key"
	keyLength   = 32
)

// KeyPath returns ~/.g3/verification.key, resolved via go-homedir the same
// way the rest of the config and logging packages resolve their
// home-relative paths.
func KeyPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("verification key: resolve home directory: %w", err)
	}
	return filepath.Join(home, keyDirName, keyFileName), nil
}

// LoadOrCreateKey reads the 32-byte verification key, lazily creating it on
// first use . If the file exists and is exactly 32 bytes it is
// returned as-is; any other state (missing, wrong size) causes regeneration.
// The key value must never be logged, printed, or shown to the agent — no
// caller in this module does either.
//
// Rotation is deliberately not automated: the only way
// to rotate is to delete the key file manually, which this function will
// transparently regenerate on the next call.
func LoadOrCreateKey() ([]byte, error) {
	path, err := KeyPath()
	if err != nil {
		return nil, err
	}
	return LoadOrCreateKeyAt(path)
}

// LoadOrCreateKeyAt is LoadOrCreateKey parameterized by path, for tests.
func LoadOrCreateKeyAt(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil && len(data) == keyLength {
		return data, nil
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("verification key: generate random bytes: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("verification key: create directory: %w", err)
	}
	if err := os.WriteFile(path, key, 0600); err != nil {
		return nil, fmt.Errorf("verification key: write file: %w", err)
	}
	// os.WriteFile honors the mode only on create; make sure an existing,
	// wrongly-sized file is re-tightened too.
	if err := os.Chmod(path, 0600); err != nil {
		return nil, fmt.Errorf("verification key: set permissions: %w", err)
	}

	return key, nil
}
