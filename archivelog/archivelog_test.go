package archivelog

import (
	"testing"
	"time"

	"github.com/debcore/debcore/store"
	"github.com/google/go-cmp/cmp"
)

func TestArchiveLog(t *testing.T) {
	s, closer, err := store.New(t.Context(), "sqlite", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer closer()

	archiveLog := New(s)
	now := time.Date(2000, 1, 1, 14, 0, 0, 0, time.UTC)
	archiveLog.now = func() time.Time { return now }
	expectedCreationDate := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("stats are not returned for files that don't exist", func(t *testing.T) {
		_, ok, err := archiveLog.Get(t.Context(), "dists/bookworm/main/binary-amd64/Packages")
		if err != nil {
			t.Errorf("unexpected error getting archive logs: %v", err)
		}
		if ok {
			t.Error("expected ok=false, got true")
		}
	})
	t.Run("the first write is assumed to be the creation", func(t *testing.T) {
		if err := archiveLog.Write(t.Context(), "pool/main/f/foo/foo_1.0_amd64.deb"); err != nil {
			t.Fatalf("failed to log file write: %v", err)
		}
		stats, ok, err := archiveLog.Get(t.Context(), "pool/main/f/foo/foo_1.0_amd64.deb")
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if !ok {
			t.Error("expected archive logs for file that exists, but got none")
		}
		expected := Stats{
			Filename: "pool/main/f/foo/foo_1.0_amd64.deb",
			Writes: []Count{
				{Date: expectedCreationDate, Count: 1},
			},
		}
		if diff := cmp.Diff(expected, stats); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("reads accumulate across days", func(t *testing.T) {
		for range 3 {
			if err = archiveLog.Read(t.Context(), "pool/main/f/foo/foo_1.0_amd64.deb"); err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
		}
		archiveLog.now = func() time.Time {
			return expectedCreationDate.Add(24 * time.Hour)
		}
		for range 2 {
			if err = archiveLog.Read(t.Context(), "pool/main/f/foo/foo_1.0_amd64.deb"); err != nil {
				t.Fatalf("failed to read file: %v", err)
			}
		}
		stats, ok, err := archiveLog.Get(t.Context(), "pool/main/f/foo/foo_1.0_amd64.deb")
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if !ok {
			t.Error("expected archive logs for file that exists, but got none")
		}
		if stats.TotalReads() != 5 {
			t.Errorf("TotalReads: got %d", stats.TotalReads())
		}
		if len(stats.Reads) != 2 {
			t.Errorf("expected reads bucketed across 2 days, got %d", len(stats.Reads))
		}
	})
}
