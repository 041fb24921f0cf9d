package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArchiveCacheCommitMovesPartialIntoPlace(t *testing.T) {
	dir := t.TempDir()
	c := NewArchiveCache(dir)

	f, err := c.CreatePartial("dists/bookworm/main/binary-amd64/Packages")
	if err != nil {
		t.Fatalf("CreatePartial: %v", err)
	}
	if _, err := f.WriteString("stanza data"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	if _, exists, _ := c.Stat("dists/bookworm/main/binary-amd64/Packages"); exists {
		t.Fatalf("file should not exist before Commit")
	}

	if err := c.Commit("dists/bookworm/main/binary-amd64/Packages"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	size, exists, err := c.Stat("dists/bookworm/main/binary-amd64/Packages")
	if err != nil || !exists {
		t.Fatalf("Stat after commit: size=%d exists=%v err=%v", size, exists, err)
	}
	if size != int64(len("stanza data")) {
		t.Errorf("got size %d", size)
	}

	if _, err := os.Stat(filepath.Join(dir, "partial", "dists/bookworm/main/binary-amd64/Packages")); !os.IsNotExist(err) {
		t.Errorf("partial file should be gone after Commit, stat err: %v", err)
	}
}

func TestArchiveCacheDiscardRemovesPartial(t *testing.T) {
	dir := t.TempDir()
	c := NewArchiveCache(dir)

	f, err := c.CreatePartial("Release")
	if err != nil {
		t.Fatalf("CreatePartial: %v", err)
	}
	f.Close()

	if err := c.Discard("Release"); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "partial", "Release")); !os.IsNotExist(err) {
		t.Errorf("expected partial file removed, err: %v", err)
	}

	// Discarding an already-gone partial file is not an error.
	if err := c.Discard("Release"); err != nil {
		t.Errorf("Discard of missing file should be a no-op, got: %v", err)
	}
}
