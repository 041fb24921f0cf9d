package scheduler

import (
	"testing"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/relation"
	"github.com/debcore/debcore/version"
)

func binVer(name, ver string, size int64) *cache.BinaryVersion {
	return &cache.BinaryVersion{
		VersionCore: cache.VersionCore{Package: name, Version: version.MustParse(ver)},
		Size:        size,
	}
}

func TestScheduleOrdersDependencyBeforeDependent(t *testing.T) {
	b := binVer("b", "1.0-1", 100)
	a := binVer("a", "1.0-1", 100)
	a.Depends = relation.Line{relation.Expression{{Package: "b"}}}

	plan := Schedule(Config{}, []Transition{
		{Package: "a", To: a},
		{Package: "b", To: b},
	})

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

	bUnpack := indexOf("b", Unpack)
	aConfigure := indexOf("a", Configure)
	if bUnpack == -1 || aConfigure == -1 {
		t.Fatalf("missing expected actions in order: %+v", order)
	}
	if bUnpack >= aConfigure {
		t.Errorf("expected b's Unpack (%d) before a's Configure (%d)", bUnpack, aConfigure)
	}
}

func TestScheduleRemoval(t *testing.T) {
	old := binVer("a", "1.0-1", 100)
	plan := Schedule(Config{}, []Transition{
		{Package: "a", From: old, To: nil},
	})
	if len(plan.Changesets) != 1 || len(plan.Changesets[0].Actions) != 1 {
		t.Fatalf("expected a single Remove action, got %+v", plan.Changesets)
	}
	if plan.Changesets[0].Actions[0].Type != Remove {
		t.Errorf("expected Remove, got %+v", plan.Changesets[0].Actions[0])
	}
}

func TestPartitionRespectsBudget(t *testing.T) {
	g := NewGraph()
	id1 := g.AddAction(InnerAction{Type: Unpack, Package: "a", Version: binVer("a", "1.0", 600)})
	id2 := g.AddAction(InnerAction{Type: Unpack, Package: "b", Version: binVer("b", "1.0", 600)})
	cs := Partition([]ActionID{id1, id2}, g, 1000)
	if len(cs) != 2 {
		t.Fatalf("expected 2 changesets under a 1000-byte budget with two 600-byte unpacks, got %d", len(cs))
	}
}

func TestTopoSortBreaksCycle(t *testing.T) {
	g := NewGraph()
	a := g.AddAction(InnerAction{Type: Unpack, Package: "a"})
	b := g.AddAction(InnerAction{Type: Configure, Package: "b"})
	g.AddEdge(a, b, classSoft)
	g.AddEdge(b, a, classHard)

	order, weakened := TopoSort(g)
	if len(order) != 2 {
		t.Fatalf("expected both actions in the order after breaking the cycle, got %+v", order)
	}
	if !weakened[classSoft] {
		t.Errorf("expected the soft edge to be reported as weakened, got %+v", weakened)
	}
}

func TestTopoSortToleratesAllConfigureCycle(t *testing.T) {
	g := NewGraph()
	a := g.AddAction(InnerAction{Type: Configure, Package: "a"})
	b := g.AddAction(InnerAction{Type: Configure, Package: "b"})
	g.AddEdge(a, b, classHard)
	g.AddEdge(b, a, classHard)

	order, weakened := TopoSort(g)
	if len(order) != 2 {
		t.Fatalf("expected both configure actions in the order, got %+v", order)
	}
	if !weakened[classHard] {
		t.Errorf("expected an all-Configure cycle to be flagged for --force-depends, got %+v", weakened)
	}
}
