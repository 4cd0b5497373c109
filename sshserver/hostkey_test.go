package sshserver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureHostKeyCreatesOnceAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "host_key")
	first, created, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected key to be created")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 host key, got %v", info.Mode().Perm())
	}
	second, created, err := EnsureHostKey(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if created {
		t.Fatalf("expected existing key to be reused")
	}
	if !bytes.Equal(first.PublicKey().Marshal(), second.PublicKey().Marshal()) {
		t.Fatalf("host key changed between starts")
	}
	if first.PublicKey().Type() != "ssh-ed25519" {
		t.Fatalf("unexpected key type %s", first.PublicKey().Type())
	}
}

func TestEnsureHostKeyRequiresPath(t *testing.T) {
	if _, _, err := EnsureHostKey(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestEnsureHostKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host_key")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := EnsureHostKey(path); err == nil {
		t.Fatalf("expected parse error")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "not a key" {
		t.Fatalf("existing file must not be replaced: %q %v", data, err)
	}
}
