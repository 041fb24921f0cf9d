package depgraph

import (
	"strings"
	"testing"

	"github.com/debcore/debcore/cache"
)

func mustStanza(t *testing.T, text string) *cache.Stanza {
	t.Helper()
	var got *cache.Stanza
	err := cache.ScanStanzas(strings.NewReader(text), func(s *cache.Stanza) error {
		got = s
		return nil
	})
	if err != nil {
		t.Fatalf("ScanStanzas: %v", err)
	}
	return got
}

func TestUnfoldIsMemoized(t *testing.T) {
	c := cache.New(cache.NewSystemState(), nil)
	s := mustStanza(t, "Package: a\nVersion: 1.0-1\nDepends: b\n\n")
	if err := c.AddBinaryStanza(s, nil); err != nil {
		t.Fatal(err)
	}
	s = mustStanza(t, "Package: b\nVersion: 1.0-1\n\n")
	if err := c.AddBinaryStanza(s, nil); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(c)
	aVer := c.GetPreferredVersion("a")
	id := b.InternVersion(aVer)

	first := b.Unfold(id)
	second := b.Unfold(id)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected exactly one Depends child both times, got %d and %d", len(first), len(second))
	}
	if first[0] != second[0] {
		t.Errorf("Unfold should be memoized and return the same child id")
	}
}

func TestFillReachesDependency(t *testing.T) {
	c := cache.New(cache.NewSystemState(), nil)
	s := mustStanza(t, "Package: a\nVersion: 1.0-1\nDepends: b\n\n")
	if err := c.AddBinaryStanza(s, nil); err != nil {
		t.Fatal(err)
	}
	s = mustStanza(t, "Package: b\nVersion: 1.0-1\n\n")
	if err := c.AddBinaryStanza(s, nil); err != nil {
		t.Fatal(err)
	}

	b := NewBuilder(c)
	aVer := c.GetPreferredVersion("a")
	rootID := b.InternVersion(aVer)

	visited := b.Fill([]ElementID{rootID})
	sawB := false
	for _, id := range visited {
		if ve, ok := b.Get(id).(*VersionElement); ok && ve.Package == "b" {
			sawB = true
		}
	}
	if !sawB {
		t.Errorf("expected Fill to reach package b through a's Depends relation")
	}
}
