package fetchevent

import (
	"context"
	"testing"
	"time"

	"github.com/debcore/debcore/store"
	"github.com/google/go-cmp/cmp"
)

func TestCounter(t *testing.T) {
	ctx := context.Background()
	s, closer, err := store.New(ctx, "sqlite", "file::memory:?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer closer()

	t.Run("counter can increment a value within a scheme", func(t *testing.T) {
		counter := New(s)
		now := time.Date(2026, 2, 20, 14, 0, 0, 0, time.UTC)
		counter.now = func() time.Time { return now }

		if err := counter.Increment(ctx, "https", "deb.debian.org"); err != nil {
			t.Fatalf("failed to increment: %v", err)
		}

		counts, err := counter.Get(ctx, "https", "deb.debian.org")
		if err != nil {
			t.Fatalf("failed to get counts: %v", err)
		}

		expected := Counts{
			{Date: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), Count: 1},
		}
		if diff := cmp.Diff(expected, counts); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("counts are distinct per scheme", func(t *testing.T) {
		counter := New(s)
		now := time.Date(2026, 2, 20, 14, 0, 0, 0, time.UTC)
		counter.now = func() time.Time { return now }

		if err := counter.Increment(ctx, "http", "mirror.example"); err != nil {
			t.Fatalf("failed to increment http: %v", err)
		}
		if err := counter.Increment(ctx, "ssh", "mirror.example"); err != nil {
			t.Fatalf("failed to increment ssh: %v", err)
		}

		httpCounts, err := counter.Get(ctx, "http", "mirror.example")
		if err != nil {
			t.Fatalf("failed to get http counts: %v", err)
		}
		sshCounts, err := counter.Get(ctx, "ssh", "mirror.example")
		if err != nil {
			t.Fatalf("failed to get ssh counts: %v", err)
		}

		if httpCounts.Total() != 1 {
			t.Errorf("expected 1, got %d", httpCounts.Total())
		}
		if sshCounts.Total() != 1 {
			t.Errorf("expected 1, got %d", sshCounts.Total())
		}
	})
	t.Run("multiple increments on the same day increase the count", func(t *testing.T) {
		counter := New(s)
		now := time.Date(2026, 2, 21, 10, 30, 0, 0, time.UTC)
		counter.now = func() time.Time { return now }

		for range 5 {
			if err := counter.Increment(ctx, "https", "popular-mirror"); err != nil {
				t.Fatalf("failed to increment: %v", err)
			}
		}

		counts, err := counter.Get(ctx, "https", "popular-mirror")
		if err != nil {
			t.Fatalf("failed to get counts: %v", err)
		}

		expected := Counts{
			{Date: time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC), Count: 5},
		}
		if diff := cmp.Diff(expected, counts); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("values returns an item in the slice for each day, including zero-count days", func(t *testing.T) {
		counter := New(s)

		day1 := time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)
		counter.now = func() time.Time { return day1 }
		for range 10 {
			if err := counter.Increment(ctx, "https", "values-test-mirror"); err != nil {
				t.Fatalf("failed to increment on day 1: %v", err)
			}
		}

		day3 := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
		counter.now = func() time.Time { return day3 }
		for range 5 {
			if err := counter.Increment(ctx, "https", "values-test-mirror"); err != nil {
				t.Fatalf("failed to increment on day 3: %v", err)
			}
		}

		counts, err := counter.Get(ctx, "https", "values-test-mirror")
		if err != nil {
			t.Fatalf("failed to get counts: %v", err)
		}

		expected := []int{10, 0, 5}
		actual := counts.Values()
		if diff := cmp.Diff(expected, actual); diff != "" {
			t.Error(diff)
		}
	})
	t.Run("get returns empty slice for a scheme/host never recorded", func(t *testing.T) {
		counter := New(s)

		counts, err := counter.Get(ctx, "ftp", "never-used.example")
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(counts) != 0 {
			t.Errorf("expected 0 counts, got %d", len(counts))
		}
	})
}
