package resolver

import (
	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/depgraph"
)

// Action is one candidate move the solver can apply to a Solution to
// progress it towards satisfying a broken RelationElement or
// AntiRelationElement: install a specific version, or leave/declare a
// package absent.
type Action struct {
	Package       string
	Install       *cache.BinaryVersion // nil if this action removes/leaves-absent
	AutoInstalled bool
	Profit        float64
	Reason        Reason

	// AcceptUnsatisfiedKey is set on the "leave this soft relation
	// unsatisfied" action, naming the relation so the solver stops
	// treating it as broken in this branch without touching any
	// package's settled version.
	AcceptUnsatisfiedKey string
}

// GenerateActions returns every action that could resolve the given
// broken relation element: one action per satisfying version (install),
// plus, for soft relations, one action that leaves it unsatisfied.
func GenerateActions(b *depgraph.Builder, el *depgraph.RelationElement, sol *Solution, cacheForPins *cache.Cache) []Action {
	var actions []Action
	for _, v := range el.SatisfyingVersions {
		current, hasCurrent := sol.Get(v.Package)
		hasOriginal := hasCurrent && current.version != nil
		originalWeight := 0.0
		newPackage := !hasCurrent
		if hasOriginal {
			originalWeight = versionWeight(cacheForPins.GetPin(current.version), current.version, current.autoInstalled, false)
		}
		supposedWeight := versionWeight(cacheForPins.GetPin(v), v, true, newPackage)
		profit := actionProfit(originalWeight, supposedWeight, hasOriginal, false)
		reason := Reason{
			Package:    v.Package,
			Version:    v.Version.String(),
			BecauseOf:  el.Source.Package,
			Expression: el.Expression.String(),
		}
		actions = append(actions, Action{Package: v.Package, Install: v, AutoInstalled: true, Profit: profit, Reason: reason})
	}
	if el.Soft {
		actions = append(actions, Action{AcceptUnsatisfiedKey: el.Key(), Profit: 0})
	}
	return actions
}

// GenerateRemovalActions returns the action that removes a package,
// scored as a removal per actionProfit's removal penalty.
func GenerateRemovalActions(pkg string, current *cache.BinaryVersion, cacheForPins *cache.Cache, autoInstalled bool) Action {
	originalWeight := versionWeight(cacheForPins.GetPin(current), current, autoInstalled, false)
	profit := actionProfit(originalWeight, 0, true, true)
	return Action{Package: pkg, Install: nil, Profit: profit, Reason: Reason{Package: pkg}}
}

// GenerateConflictActions returns one removal action per version named by
// anti's ConflictingVersions that sol currently has chosen, letting the
// search branch on giving up each side of the conflict in turn rather
// than leave both installed.
func GenerateConflictActions(anti *depgraph.AntiRelationElement, sol *Solution, cacheForPins *cache.Cache) []Action {
	var actions []Action
	for _, v := range anti.ConflictingVersions {
		e, ok := sol.Get(v.Package)
		if !ok || e.version != v {
			continue
		}
		a := GenerateRemovalActions(v.Package, v, cacheForPins, e.autoInstalled)
		a.Reason = Reason{Package: v.Package, BecauseOf: anti.Source.Package, Expression: "Conflicts: " + anti.Expression.String()}
		actions = append(actions, a)
	}
	return actions
}

// Apply returns a new child Solution with the action's decision recorded,
// applying the backtracking quality correction to the action's stored
// profit at the child's depth.
func Apply(parent *Solution, nextID int, a Action, qualityBar float64) *Solution {
	child := parent.Clone(nextID)
	if a.AcceptUnsatisfiedKey != "" {
		child.AcceptUnsatisfied(a.AcceptUnsatisfiedKey)
	} else {
		child.SetReason(a.Package, a.Install, a.AutoInstalled, a.Reason)
	}
	child.score = parent.score + a.Profit + qualityCorrection(qualityBar, child.level)
	return child
}
