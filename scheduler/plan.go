package scheduler

import (
	"sort"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/relation"
)

// ForceFlags names the dpkg --force-* flags a Plan may need to ask the
// installer to pass.
type ForceFlags struct {
	Depends         bool // --force-depends: breaking a hard relation is unavoidable
	Breaks          bool // --force-breaks
	RemoveReinstreq bool // --force-remove-reinstreq: removing a package stuck "half configured"
	RemoveEssential bool // --force-remove-essential
}

// Plan is the Scheduler's final output: an ordered sequence of
// changesets plus one set of force flags covering the whole plan, ready
// to hand to an installer.Driver.
type Plan struct {
	Changesets []Changeset
	Force      ForceFlags
}

// Config carries the scheduler's tunable knobs.
type Config struct {
	ArchiveBudgetBytes int64 // 0 means unbounded

	// OnActionGroups, if set, is called once with the number of
	// changesets produced so a caller can feed
	// metrics.Metrics.IncrementActionGroups without this package
	// depending on the metrics package.
	OnActionGroups func(n int)
}

// Schedule builds the full dpkg-invocation plan for a set of package
// transitions: it expands inner actions, builds the ordering graph
// (pseudo-essential and inter-package edges), breaks any cycles,
// produces a topological order, and partitions it into changesets.
func Schedule(cfg Config, transitions []Transition) Plan {
	g := NewGraph()
	actionsByPackage := make(map[string][]ActionID)
	removalFirst := make(map[string]bool)

	for _, t := range transitions {
		if t.From != nil && t.To != nil && conflictsDuringUpgrade(t) {
			removalFirst[t.Package] = true
		}
	}

	for _, t := range transitions {
		for _, ia := range innerActionsFor(t, removalFirst[t.Package]) {
			id := g.AddAction(ia)
			actionsByPackage[t.Package] = append(actionsByPackage[t.Package], id)
		}
	}

	addDependencyEdges(g, transitions, actionsByPackage)
	addConflictsEdges(g, transitions, actionsByPackage)
	addEssentialEdges(g, transitions, actionsByPackage)

	order, weakened := TopoSort(g)
	changesets := Partition(order, g, cfg.ArchiveBudgetBytes)
	if cfg.OnActionGroups != nil {
		cfg.OnActionGroups(len(changesets))
	}

	force := computeForceFlags(transitions)
	if weakened[classHard] {
		force.Depends = true
	}
	if weakened[classMedium] {
		force.Breaks = true
	}

	return Plan{
		Changesets: changesets,
		Force:      force,
	}
}

// conflictsDuringUpgrade reports whether moving a package from its old to
// its new version requires removing the old one first (rather than an
// in-place unpack), e.g. because the new version's Conflicts line names
// the old one directly. This repository's Transition type does not carry
// full Conflicts data, so this is a conservative heuristic: packages
// never require it unless told to elsewhere in the pipeline.
func conflictsDuringUpgrade(t Transition) bool {
	return false
}

// dependencyActionIndex indexes each package's Configure, Unpack and
// Remove action ids for the edge-wiring passes below.
type dependencyActionIndex struct {
	configure map[string]ActionID
	unpack    map[string]ActionID
	remove    map[string]ActionID
}

func newDependencyActionIndex(g *Graph, byPackage map[string][]ActionID) dependencyActionIndex {
	idx := dependencyActionIndex{
		configure: make(map[string]ActionID),
		unpack:    make(map[string]ActionID),
		remove:    make(map[string]ActionID),
	}
	for pkg, ids := range byPackage {
		for _, id := range ids {
			switch g.Actions[id].Type {
			case Configure:
				idx.configure[pkg] = id
			case Unpack:
				idx.unpack[pkg] = id
			case Remove:
				idx.remove[pkg] = id
			}
		}
	}
	return idx
}

// addDependencyEdges wires Pre-Depends and Depends as two distinct
// orderings: a Pre-Depends must have its dependency fully Configured
// before the dependent is even Unpacked, while a plain Depends only
// needs the dependency Configured before the dependent is itself
// Configured (the dependent may be Unpacked first, unconfigured).
func addDependencyEdges(g *Graph, transitions []Transition, byPackage map[string][]ActionID) {
	idx := newDependencyActionIndex(g, byPackage)

	for _, t := range transitions {
		if t.To == nil {
			continue
		}
		dependentUnpack, hasUnpack := idx.unpack[t.Package]
		dependentConfigure, hasConfigure := idx.configure[t.Package]

		if hasUnpack {
			for _, expr := range t.To.PreDepends {
				wireHardEdge(g, expr, dependentUnpack, idx.configure)
			}
		}
		if hasConfigure {
			for _, expr := range t.To.Depends {
				wireHardEdge(g, expr, dependentConfigure, idx.configure)
			}
		}
	}
}

// wireHardEdge adds a "dependency Configure precedes to" edge for every
// alternative in expr that is itself being configured in this batch. A
// relation satisfied by a package outside this batch (one already
// installed and untouched) needs no edge: it is already present.
func wireHardEdge(g *Graph, expr relation.Expression, to ActionID, configureAction map[string]ActionID) {
	for _, alt := range expr {
		if id, ok := configureAction[alt.Package]; ok {
			g.AddEdge(id, to, classHard)
		}
	}
}

// addConflictsEdges wires "every package in a Conflicts/Breaks of V must
// be Removed before V's Unpack", classed Medium for Breaks (which dpkg
// can be forced past with --force-breaks) and Hard for Conflicts.
func addConflictsEdges(g *Graph, transitions []Transition, byPackage map[string][]ActionID) {
	idx := newDependencyActionIndex(g, byPackage)

	for _, t := range transitions {
		if t.To == nil {
			continue
		}
		dependentUnpack, ok := idx.unpack[t.Package]
		if !ok {
			continue
		}
		wireConflictEdge(g, t.To.Conflicts, dependentUnpack, idx.remove, classHard)
		wireConflictEdge(g, t.To.Breaks, dependentUnpack, idx.remove, classMedium)
	}
}

func wireConflictEdge(g *Graph, expr relation.Line, to ActionID, removeAction map[string]ActionID, class edgeClass) {
	for _, alt := range expr {
		if id, ok := removeAction[alt.Package]; ok {
			g.AddEdge(id, to, class)
		}
	}
}

// addEssentialEdges computes the transitive closure of packages reachable
// from essential=true installed versions via Pre-Depends and Depends,
// restricted to the packages actually touched in this batch, and forces
// each such package's Remove/Unpack and Unpack/Configure to be co-located
// by adding two-way edges between them so they merge into one action
// group (necessary whenever an essential package needs replacing).
func addEssentialEdges(g *Graph, transitions []Transition, byPackage map[string][]ActionID) {
	idx := newDependencyActionIndex(g, byPackage)
	byName := make(map[string]Transition, len(transitions))
	for _, t := range transitions {
		byName[t.Package] = t
	}

	essentialRoots := make([]string, 0)
	for _, t := range transitions {
		if t.To != nil && t.To.Essential {
			essentialRoots = append(essentialRoots, t.Package)
		}
	}

	reached := make(map[string]bool)
	var walk func(pkg string)
	walk = func(pkg string) {
		if reached[pkg] {
			return
		}
		reached[pkg] = true
		t, ok := byName[pkg]
		if !ok || t.To == nil {
			return
		}
		for _, expr := range append(append(relation.Line{}, t.To.PreDepends...), t.To.Depends...) {
			for _, alt := range expr {
				walk(alt.Package)
			}
		}
	}
	for _, root := range essentialRoots {
		walk(root)
	}

	for pkg := range reached {
		removeID, hasRemove := idx.remove[pkg]
		unpackID, hasUnpack := idx.unpack[pkg]
		configureID, hasConfigure := idx.configure[pkg]
		if hasRemove && hasUnpack {
			g.AddEdge(removeID, unpackID, classFundamental)
			g.AddEdge(unpackID, removeID, classFundamental)
		}
		if hasUnpack && hasConfigure {
			g.AddEdge(unpackID, configureID, classFundamental)
			g.AddEdge(configureID, unpackID, classFundamental)
		}
	}
}

func computeForceFlags(transitions []Transition) ForceFlags {
	var f ForceFlags
	for _, t := range transitions {
		if t.To != nil {
			continue
		}
		if t.From != nil && t.From.Essential {
			f.RemoveEssential = true
		}
		if t.Reinstreq {
			f.RemoveReinstreq = true
		}
	}
	return f
}

// sortBySize sorts versions by ascending archive size; no caller in the
// package or its tests uses it.
func sortBySize(versions []*cache.BinaryVersion) {
	sort.Slice(versions, func(i, j int) bool { return versions[i].Size < versions[j].Size })
}
