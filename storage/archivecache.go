package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ArchiveCache backs the Fetcher's on-disk lists/archives directory: a
// FileSystem rooted at the cache directory, plus a "download into
// partial/, move into place atomically on success" rule so a crash
// mid-download never leaves a half-written file where a reader expects
// a complete one.
type ArchiveCache struct {
	fs *FileSystem
}

// NewArchiveCache roots an ArchiveCache at baseDir; baseDir/partial is
// used as scratch space for in-flight downloads.
func NewArchiveCache(baseDir string) *ArchiveCache {
	return &ArchiveCache{fs: NewFileSystem(baseDir)}
}

// Read opens a finished (non-partial) file for reading.
func (c *ArchiveCache) Read(filename string) (io.ReadCloser, bool, error) {
	return c.fs.Read(filename)
}

// CreatePartial opens a new file under partial/<filename> for writing,
// creating any needed directories.
func (c *ArchiveCache) CreatePartial(filename string) (*os.File, error) {
	fullPath := filepath.Join(c.fs.basePath, "partial", filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("archive cache: creating partial directory for %s: %w", filename, err)
	}
	f, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("archive cache: creating partial file %s: %w", filename, err)
	}
	return f, nil
}

// Commit moves a completed partial/<filename> into place, replacing any
// prior copy. The move happens within the same filesystem so it is
// atomic; callers must verify the file's hash against what the Release
// file declared before calling Commit.
func (c *ArchiveCache) Commit(filename string) error {
	partialPath := filepath.Join(c.fs.basePath, "partial", filename)
	finalPath := filepath.Join(c.fs.basePath, filename)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return fmt.Errorf("archive cache: creating directory for %s: %w", filename, err)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		return fmt.Errorf("archive cache: committing %s: %w", filename, err)
	}
	return nil
}

// Discard removes a partial download that failed verification.
func (c *ArchiveCache) Discard(filename string) error {
	partialPath := filepath.Join(c.fs.basePath, "partial", filename)
	if err := os.Remove(partialPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("archive cache: discarding %s: %w", filename, err)
	}
	return nil
}

// Stat reports a finished file's size, if present.
func (c *ArchiveCache) Stat(filename string) (size int64, exists bool, err error) {
	fullPath := filepath.Join(c.fs.basePath, filename)
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("archive cache: stat %s: %w", filename, err)
	}
	return info.Size(), true, nil
}
