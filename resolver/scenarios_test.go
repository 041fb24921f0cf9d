package resolver

import (
	"strings"
	"testing"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/depgraph"
)

func mustAdd(t *testing.T, c *cache.Cache, text string) {
	t.Helper()
	err := cache.ScanStanzas(strings.NewReader(text), func(s *cache.Stanza) error {
		return c.AddBinaryStanza(s, nil)
	})
	if err != nil {
		t.Fatalf("AddBinaryStanza: %v", err)
	}
}

// TestResolveSimpleDependency covers the simplest case: installing a
// package with a single satisfiable Depends pulls in that dependency.
func TestResolveSimpleDependency(t *testing.T) {
	c := cache.New(cache.NewSystemState(), nil)
	mustAdd(t, c, "Package: a\nVersion: 1.0-1\nDepends: b\n\n")
	mustAdd(t, c, "Package: b\nVersion: 1.0-1\n\n")

	b := depgraph.NewBuilder(c)
	aVer := c.GetPreferredVersion("a")
	rootID := b.InternVersion(aVer)
	elements := b.Fill([]depgraph.ElementID{rootID})

	sol, err := Resolve(Config{}, b, c, []depgraph.ElementID{rootID}, elements)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	installed := sol.Installed()
	if _, ok := installed["a"]; !ok {
		t.Errorf("expected a installed")
	}
	if _, ok := installed["b"]; !ok {
		t.Errorf("expected b installed as a's dependency, got %+v", installed)
	}
}

// TestResolveAlternativeDependency covers an OR-joined Depends: the
// resolver must choose one alternative, not fail.
func TestResolveAlternativeDependency(t *testing.T) {
	c := cache.New(cache.NewSystemState(), nil)
	mustAdd(t, c, "Package: a\nVersion: 1.0-1\nDepends: missing | b\n\n")
	mustAdd(t, c, "Package: b\nVersion: 1.0-1\n\n")

	b := depgraph.NewBuilder(c)
	aVer := c.GetPreferredVersion("a")
	rootID := b.InternVersion(aVer)
	elements := b.Fill([]depgraph.ElementID{rootID})

	sol, err := Resolve(Config{}, b, c, []depgraph.ElementID{rootID}, elements)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	installed := sol.Installed()
	if _, ok := installed["b"]; !ok {
		t.Errorf("expected b installed via the satisfiable alternative, got %+v", installed)
	}
}

// TestResolveConflictRemovesConflictingPackage covers conflict
// resolution: x 1.0 is already installed, y Conflicts with x (but not
// with x 2.0), and installing y is requested. The resolver must not
// settle on a solution with both x 1.0 and y installed at once.
func TestResolveConflictRemovesConflictingPackage(t *testing.T) {
	sys := cache.NewSystemState()
	c := cache.New(sys, nil)
	mustAdd(t, c, "Package: x\nVersion: 1.0-1\n\n")
	mustAdd(t, c, "Package: x\nVersion: 2.0-1\n\n")
	mustAdd(t, c, "Package: y\nVersion: 1.0-1\nConflicts: x (<< 2.0-1)\n\n")

	var xOld *cache.BinaryVersion
	for _, v := range c.GetSortedPinnedVersions("x") {
		if v.Version.String() == "1.0-1" {
			xOld = v
		}
	}
	if xOld == nil {
		t.Fatalf("x 1.0-1 not found among parsed versions")
	}
	sys.Installed["x"] = xOld

	b := depgraph.NewBuilder(c)
	xRootID := b.InternVersion(xOld)
	yVer := c.GetPreferredVersion("y")
	yRootID := b.InternVersion(yVer)
	roots := []depgraph.ElementID{xRootID, yRootID}
	elements := b.Fill(roots)

	sol, err := Resolve(Config{}, b, c, roots, elements)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	installed := sol.Installed()
	yInstalled, yOK := installed["y"]
	if !yOK || yInstalled.Version.String() != "1.0-1" {
		t.Fatalf("expected y 1.0-1 installed, got %+v", installed)
	}
	if xv, ok := installed["x"]; ok && xv.Version.String() == "1.0-1" {
		t.Errorf("expected x 1.0-1 to be resolved away by the conflict, got %+v", installed)
	}
}

// TestResolveUnsatisfiableFails covers the failure path: a Depends with
// no satisfying candidate at all must surface a resolution failure
// rather than silently succeeding.
func TestResolveUnsatisfiableFails(t *testing.T) {
	c := cache.New(cache.NewSystemState(), nil)
	mustAdd(t, c, "Package: a\nVersion: 1.0-1\nDepends: nonexistent\n\n")

	b := depgraph.NewBuilder(c)
	aVer := c.GetPreferredVersion("a")
	rootID := b.InternVersion(aVer)
	elements := b.Fill([]depgraph.ElementID{rootID})

	_, err := Resolve(Config{}, b, c, []depgraph.ElementID{rootID}, elements)
	if err == nil {
		t.Fatalf("expected Resolve to fail for an unsatisfiable dependency")
	}
}
