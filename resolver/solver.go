package resolver

import (
	"log/slog"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/depgraph"
	"github.com/debcore/debcore/errs"
)

// Config carries the resolver's tunable knobs, each one named after its
// corresponding configuration key.
type Config struct {
	MaxSolutionCount int     // debcore::resolver::max-solution-count; 0 means unbounded
	MaxIterations    int     // safety cutoff; 0 means a generous built-in default
	QualityBar       float64 // debcore::resolver::quality-bar; backtracking bias, bigger means more willing to try other solutions
	Chooser          ChooserType
	Trace            bool
	Logger           *slog.Logger

	// OnIteration, if set, is called once per search iteration so a
	// caller can feed metrics.Metrics.IncrementResolverIterations
	// without this package depending on the metrics package.
	OnIteration func()
}

// brokenRelation pairs the constraint found broken (either a forward
// RelationElement left unsatisfied, or an AntiRelationElement violated by
// two simultaneously-chosen conflicting versions) with the owning
// Solution, so the solver can branch from exactly that point.
type brokenRelation struct {
	el   *depgraph.RelationElement
	anti *depgraph.AntiRelationElement
	sol  *Solution
}

// Resolve runs the best-first search to completion: it repeatedly picks
// the best live solution, finds one relation it leaves unsatisfied,
// forks a child solution per candidate action, and re-pools the
// children, until a solution with no broken hard relation is found or
// the pool is exhausted.
func Resolve(cfg Config, builder *depgraph.Builder, c *cache.Cache, roots []depgraph.ElementID, elements []depgraph.ElementID) (*Solution, error) {
	maxIter := cfg.MaxIterations
	if maxIter == 0 {
		maxIter = 100000
	}
	t := newTracer(nil)
	if cfg.Trace {
		t = newTracer(cfg.Logger)
	}

	nextID := 1
	root := NewRootSolution()
	for _, id := range roots {
		if ve, ok := builder.Get(id).(*depgraph.VersionElement); ok {
			root.Set(ve.Package, ve.Version, c.System.IsAutoInstalled(ve.Package))
		}
	}
	p := newPool(cfg.MaxSolutionCount)
	p.add(root)

	iterations := 0
	for !p.empty() {
		iterations++
		if cfg.OnIteration != nil {
			cfg.OnIteration()
		}
		if iterations > maxIter {
			return nil, errs.NewResolutionFailure("exceeded maximum iterations without finding a solution", nil)
		}

		idx := p.selectBest()
		sol := p.take(idx)
		t.logVisit(sol)

		broken := findBrokenRelation(builder, elements, sol)
		if broken == nil {
			t.logFinish(sol)
			t.logSolve(iterations, sol)
			return sol, nil
		}

		var actions []Action
		if broken.anti != nil {
			actions = GenerateConflictActions(broken.anti, sol, c)
		} else {
			actions = GenerateActions(builder, broken.el, sol, c)
		}
		if len(actions) == 0 {
			// A hard relation with no candidate at all: the graph
			// builder should have caught this as an UnsatisfiedElement,
			// but defend against it reaching the solver anyway.
			continue
		}
		for _, a := range actions {
			child := Apply(sol, nextID, a, cfg.QualityBar)
			nextID++
			t.logSelect(child, a)
			p.add(child)
		}
	}

	t.logSolve(iterations, nil)
	return nil, errs.NewResolutionFailure("no solution satisfies every hard relation", nil)
}

// findBrokenRelation scans the builder's known elements reachable from
// elements for the first constraint not yet satisfied by sol's settled
// package choices: either a hard (non-soft) RelationElement with no
// satisfying version chosen, or a Conflicts AntiRelationElement whose
// source and one of its conflicting versions are both chosen at once.
// Soft relations are treated as resolved by the "leave unsatisfied"
// action already folded into the solution that chose it, so they are
// only considered broken if sol has no entry for them yet at all. Breaks
// is deliberately not enforced here: it permits transient coinstallation
// during an upgrade and is instead ordered by the action scheduler.
func findBrokenRelation(b *depgraph.Builder, elements []depgraph.ElementID, sol *Solution) *brokenRelation {
	for _, id := range elements {
		switch el := b.Get(id).(type) {
		case *depgraph.RelationElement:
			e, ok := sol.Get(el.Source.Package)
			if !ok || e.version != el.Source.Version {
				continue // the owning package isn't (this version, currently) installed in sol
			}
			if relationSatisfied(el, sol) {
				continue
			}
			return &brokenRelation{el: el, sol: sol}
		case *depgraph.AntiRelationElement:
			if el.Breaks {
				continue
			}
			e, ok := sol.Get(el.Source.Package)
			if !ok || e.version != el.Source.Version {
				continue
			}
			if !conflictViolated(el, sol) {
				continue
			}
			return &brokenRelation{anti: el, sol: sol}
		}
	}
	return nil
}

func relationSatisfied(rel *depgraph.RelationElement, sol *Solution) bool {
	for _, v := range rel.SatisfyingVersions {
		if e, ok := sol.Get(v.Package); ok && e.version == v {
			return true
		}
	}
	if rel.Soft && sol.IsAcceptedUnsatisfied(rel.Key()) {
		return true
	}
	return false
}

// conflictViolated reports whether sol has chosen any of anti's
// ConflictingVersions alongside anti's own source version.
func conflictViolated(anti *depgraph.AntiRelationElement, sol *Solution) bool {
	for _, v := range anti.ConflictingVersions {
		if e, ok := sol.Get(v.Package); ok && e.version == v {
			return true
		}
	}
	return false
}
