package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDownloadViaFileMethodEndToEnd covers a full client -> manager ->
// performer -> transport round trip using the file:// method, so it
// needs no network access.
func TestDownloadViaFileMethodEndToEnd(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.txt")
	if err := os.WriteFile(srcPath, []byte("hello archive"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	socketPath := filepath.Join(dir, "manager.sock")
	mgr := NewManager(nil, 2)
	mgr.Register(FileMethod{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Listen(ctx, socketPath) }()

	waitForSocket(t, socketPath)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	targetPath := filepath.Join(dir, "target.txt")
	if err := client.Download("file://"+srcPath, targetPath, 0, ""); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello archive" {
		t.Errorf("got %q", got)
	}
}

// TestDownloadUnknownSchemeFails covers the failure path for a URI with
// no registered transport method.
func TestDownloadUnknownSchemeFails(t *testing.T) {
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "manager.sock")
	mgr := NewManager(nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Listen(ctx, socketPath)
	waitForSocket(t, socketPath)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if err := client.Download("gopher://example/invalid", filepath.Join(dir, "out"), 0, ""); err == nil {
		t.Errorf("expected an error for an unregistered scheme")
	}
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("socket %s never appeared", path)
}
