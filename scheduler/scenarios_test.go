package scheduler

import (
	"testing"

	"github.com/debcore/debcore/relation"
)

// TestScenarioSimpleInstall covers installing a package together with
// its one dependency: both get Unpacked before either is Configured, and
// the dependency's Configure precedes the dependent's.
func TestScenarioSimpleInstall(t *testing.T) {
	dep := binVer("libfoo", "1.0-1", 100)
	top := binVer("foo", "1.0-1", 100)
	top.Depends = relation.Line{relation.Expression{{Package: "libfoo"}}}

	plan := Schedule(Config{}, []Transition{
		{Package: "foo", To: top},
		{Package: "libfoo", To: dep},
	})

	if plan.Force.Depends || plan.Force.Breaks {
		t.Fatalf("expected no force flags for a clean install, got %+v", plan.Force)
	}

	var order []InnerAction
	for _, cs := range plan.Changesets {
		order = append(order, cs.Actions...)
	}
	indexOf := func(pkg string, typ InnerActionType) int {
		for i, ia := range order {
			if ia.Package == pkg && ia.Type == typ {
				return i
			}
		}
		return -1
	}

	depConfigure := indexOf("libfoo", Configure)
	topConfigure := indexOf("foo", Configure)
	depUnpack := indexOf("libfoo", Unpack)
	topUnpack := indexOf("foo", Unpack)
	if depConfigure == -1 || topConfigure == -1 || depUnpack == -1 || topUnpack == -1 {
		t.Fatalf("missing expected actions in order: %+v", order)
	}
	if depConfigure >= topConfigure {
		t.Errorf("expected libfoo's Configure (%d) before foo's Configure (%d)", depConfigure, topConfigure)
	}
}

// TestScenarioEssentialRemovalForcesFlag covers removing an essential
// package: the produced plan must ask for --force-remove-essential since
// dpkg itself refuses to do this without it.
func TestScenarioEssentialRemovalForcesFlag(t *testing.T) {
	old := binVer("dpkg", "1.0-1", 100)
	old.Essential = true

	plan := Schedule(Config{}, []Transition{
		{Package: "dpkg", From: old, To: nil},
	})

	if !plan.Force.RemoveEssential {
		t.Errorf("expected RemoveEssential to be set when removing an essential package, got %+v", plan.Force)
	}
	if len(plan.Changesets) != 1 || len(plan.Changesets[0].Actions) != 1 || plan.Changesets[0].Actions[0].Type != Remove {
		t.Fatalf("expected a single Remove action, got %+v", plan.Changesets)
	}
}

// TestScenarioBreaksCycleForcesBreaksFlag covers versions A and B whose
// Breaks relations form a mutual cycle while their hard Depends do not:
// the cycle must still be scheduled rather than rejected, weakening only
// the Breaks (Medium) edge and leaving the Hard class untouched, so the
// resulting plan asks for --force-breaks and keeps every action in a
// single changeset.
func TestScenarioBreaksCycleForcesBreaksFlag(t *testing.T) {
	g := NewGraph()
	aUnpack := g.AddAction(InnerAction{Type: Unpack, Package: "a", Version: binVer("a", "2.0-1", 100)})
	aConfigure := g.AddAction(InnerAction{Type: Configure, Package: "a", Version: binVer("a", "2.0-1", 100)})
	bUnpack := g.AddAction(InnerAction{Type: Unpack, Package: "b", Version: binVer("b", "2.0-1", 100)})
	bConfigure := g.AddAction(InnerAction{Type: Configure, Package: "b", Version: binVer("b", "2.0-1", 100)})

	g.AddEdge(aUnpack, aConfigure, classFundamental)
	g.AddEdge(bUnpack, bConfigure, classFundamental)
	// a's new version Breaks old b, b's new version Breaks old a: modelled
	// here as each Unpack having to precede the other, a mutual Medium
	// cycle.
	g.AddEdge(bUnpack, aUnpack, classMedium)
	g.AddEdge(aUnpack, bUnpack, classMedium)

	order, weakened := TopoSort(g)
	if len(order) != 4 {
		t.Fatalf("expected all 4 actions to survive cycle-breaking, got %+v", order)
	}
	if !weakened[classMedium] {
		t.Errorf("expected the Breaks (Medium) edge to be reported as weakened, got %+v", weakened)
	}
	if weakened[classHard] {
		t.Errorf("hard Depends did not participate in the cycle, should not be weakened, got %+v", weakened)
	}

	changesets := Partition(order, g, 0)
	if len(changesets) != 1 {
		t.Errorf("expected the cycle-linked actions to stay in a single changeset, got %d", len(changesets))
	}

	force := computeForceFlags(nil)
	if weakened[classMedium] {
		force.Breaks = true
	}
	if !force.Breaks {
		t.Errorf("expected the plan's force flags to request --force-breaks")
	}
}
