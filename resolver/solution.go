package resolver

import (
	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/depgraph"
)

// entry is one package's settled state within a Solution: which version
// (if any) is chosen, and whether that choice only satisfies a
// dependency rather than a direct user request.
type entry struct {
	version       *cache.BinaryVersion // nil means "decided not installed"
	autoInstalled bool
	reason        Reason
}

// Solution is one candidate assignment of package -> version across every
// package touched so far by the search, plus the running score that
// ranks it against its siblings in the pool. Solutions are cloned
// structurally: Clone shares the parent's map and only copies on first
// write (copy-on-write via a owned-keys set), avoiding an O(n) copy per
// search node.
type Solution struct {
	id    int
	level int
	score float64

	parent *Solution
	own    map[string]entry // keys this solution itself set, overriding parent

	// pending holds element ids not yet resolved one way or the other;
	// the solver pops from here to decide what to branch on next.
	pending []depgraph.ElementID

	// acceptedUnsatisfied records the Key() of soft RelationElements this
	// branch explicitly chose to leave unsatisfied, so the solver does
	// not keep re-offering them as broken.
	acceptedUnsatisfied map[string]bool
}

// NewRootSolution returns the initial solution (id 0, level 0, empty).
func NewRootSolution() *Solution {
	return &Solution{own: make(map[string]entry)}
}

// Get looks up a package's settled entry, walking up the parent chain
// until a solution that set it is found.
func (s *Solution) Get(pkg string) (entry, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if e, ok := cur.own[pkg]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// Clone returns a child solution sharing s's settled entries via the
// parent chain, with its own id/level/score and an empty own map ready
// to receive this branch's decisions.
func (s *Solution) Clone(nextID int) *Solution {
	return &Solution{
		id:      nextID,
		level:   s.level + 1,
		score:   s.score,
		parent:  s,
		own:     make(map[string]entry),
		pending: append([]depgraph.ElementID(nil), s.pending...),
	}
}

// Set records a decision for pkg in this solution (not the parent), with
// no Reason attached (used for seeding the root solution from system
// state, where "why" is simply "already installed").
func (s *Solution) Set(pkg string, v *cache.BinaryVersion, autoInstalled bool) {
	s.SetReason(pkg, v, autoInstalled, Reason{Package: pkg, Version: versionStringOrEmpty(v)})
}

// SetReason records a decision for pkg in this solution along with the
// Reason that led to it, used by Apply so ReasonChain can later explain
// the choice.
func (s *Solution) SetReason(pkg string, v *cache.BinaryVersion, autoInstalled bool, reason Reason) {
	s.own[pkg] = entry{version: v, autoInstalled: autoInstalled, reason: reason}
}

func versionStringOrEmpty(v *cache.BinaryVersion) string {
	if v == nil {
		return ""
	}
	return v.Version.String()
}

// ReasonChain builds the chain of Reasons, root first, that led to pkg's
// current entry, following each Reason's BecauseOf pointer back through
// the solution's other settled packages.
func (s *Solution) ReasonChain(pkg string) ReasonChain {
	var chain ReasonChain
	seen := make(map[string]bool)
	for pkg != "" && !seen[pkg] {
		seen[pkg] = true
		e, ok := s.Get(pkg)
		if !ok {
			break
		}
		chain = append(chain, e.reason)
		pkg = e.reason.BecauseOf
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// AcceptUnsatisfied marks a soft relation (by its Key()) as deliberately
// left unsatisfied in this branch.
func (s *Solution) AcceptUnsatisfied(relationKey string) {
	if s.acceptedUnsatisfied == nil {
		s.acceptedUnsatisfied = make(map[string]bool)
	}
	s.acceptedUnsatisfied[relationKey] = true
}

// IsAcceptedUnsatisfied reports whether relationKey was marked unsatisfied
// by this solution or any ancestor.
func (s *Solution) IsAcceptedUnsatisfied(relationKey string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.acceptedUnsatisfied[relationKey] {
			return true
		}
	}
	return false
}

// ID, Level and Score expose the fields search ordering needs.
func (s *Solution) ID() int       { return s.id }
func (s *Solution) Level() int    { return s.level }
func (s *Solution) Score() float64 { return s.score }

// Installed returns every package name this solution has decided to
// install, by walking the full parent chain once.
func (s *Solution) Installed() map[string]*cache.BinaryVersion {
	out := make(map[string]*cache.BinaryVersion)
	seen := make(map[string]bool)
	for cur := s; cur != nil; cur = cur.parent {
		for pkg, e := range cur.own {
			if seen[pkg] {
				continue
			}
			seen[pkg] = true
			if e.version != nil {
				out[pkg] = e.version
			}
		}
	}
	return out
}
