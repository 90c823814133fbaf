package verify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateKeyAtGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verification.key")

	key, err := LoadOrCreateKeyAt(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKeyAt() error = %v", err)
	}
	if len(key) != keyLength {
		t.Fatalf("key length = %d, want %d", len(key), keyLength)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("key file mode = %v, want 0600", perm)
	}

	again, err := LoadOrCreateKeyAt(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKeyAt() second call error = %v", err)
	}
	if string(again) != string(key) {
		t.Error("second call regenerated the key instead of reusing the persisted one")
	}
}

func TestLoadOrCreateKeyAtRegeneratesWrongSizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verification.key")
	if err := os.WriteFile(path, []byte("too short"), 0644); err != nil {
		t.Fatalf("seed wrong-sized key: %v", err)
	}

	key, err := LoadOrCreateKeyAt(path)
	if err != nil {
		t.Fatalf("LoadOrCreateKeyAt() error = %v", err)
	}
	if len(key) != keyLength {
		t.Errorf("key length = %d, want %d after regeneration", len(key), keyLength)
	}
}

func TestKeyPathResolvesUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := KeyPath()
	if err != nil {
		t.Fatalf("KeyPath() error = %v", err)
	}
	want := filepath.Join(home, keyDirName, keyFileName)
	if path != want {
		t.Errorf("KeyPath() = %q, want %q", path, want)
	}
}
