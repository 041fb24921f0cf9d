package auth

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCredentialStoreEmptyPath(t *testing.T) {
	store, err := LoadCredentialStore("")
	if err != nil {
		t.Fatalf("LoadCredentialStore: %v", err)
	}
	if _, ok := store.Lookup("anything"); ok {
		t.Errorf("expected no credentials in an empty store")
	}
}

func TestLoadCredentialStoreParsesHostLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	content := "# comment\nrepo.example.com alice s3cr3t\nmirror.example.net bot token with spaces\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := LoadCredentialStore(path)
	if err != nil {
		t.Fatalf("LoadCredentialStore: %v", err)
	}

	cred, ok := store.Lookup("repo.example.com")
	if !ok || cred.Username != "alice" || cred.Password != "s3cr3t" {
		t.Errorf("got %+v, ok=%v", cred, ok)
	}

	cred2, ok := store.Lookup("mirror.example.net")
	if !ok || cred2.Username != "bot" || cred2.Password != "token with spaces" {
		t.Errorf("got %+v, ok=%v", cred2, ok)
	}

	if _, ok := store.Lookup("unknown.example.org"); ok {
		t.Errorf("expected no credential for an unregistered host")
	}
}

func TestLoadCredentialStoreRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials")
	if err := os.WriteFile(path, []byte("onlyonefield\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadCredentialStore(path); err == nil {
		t.Errorf("expected an error for a malformed line")
	}
}
