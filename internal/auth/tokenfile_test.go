package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewTokenFile_EmptyPathDisables(t *testing.T) {
	if tf := NewTokenFile(""); tf != nil {
		t.Error("expected nil store for empty path")
	}
}

func TestTokenFile_SaveLoadClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	tf := NewTokenFile(path)

	if err := tf.Save("tok-abc"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected 0600 perms, got %v", info.Mode().Perm())
	}

	tok, err := tf.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tok != "tok-abc" {
		t.Errorf("expected tok-abc, got %q", tok)
	}

	if err := tf.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	// Clearing twice is a no-op
	if err := tf.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}

	tok, err = tf.Load()
	if err != nil {
		t.Fatalf("Load after Clear failed: %v", err)
	}
	if tok != "" {
		t.Errorf("expected empty token after Clear, got %q", tok)
	}
}
