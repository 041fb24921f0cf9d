package resolver

import (
	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/relation"
)

// AutoRemove computes reachability from every manually-requested package
// (sol's roots that are not marked auto-installed) through Pre-Depends
// and Depends edges over sol's chosen versions, then drops every
// unreached package: one with no remaining dependent is, by
// construction, either automatically installed or a package this resolve
// introduced only to satisfy a now-abandoned dependency, and so is
// eligible for removal. The returned map is the final install set the
// Scheduler should diff against the system state.
func AutoRemove(sol *Solution) map[string]*cache.BinaryVersion {
	installed := sol.Installed()

	reached := make(map[string]bool, len(installed))
	var walk func(pkg string)
	walk = func(pkg string) {
		if reached[pkg] {
			return
		}
		v, ok := installed[pkg]
		if !ok || v == nil {
			return
		}
		reached[pkg] = true
		for _, expr := range append(append(relation.Line{}, v.PreDepends...), v.Depends...) {
			for _, alt := range expr {
				if _, ok := installed[alt.Package]; ok {
					walk(alt.Package)
				}
			}
		}
	}

	for pkg := range installed {
		if e, ok := sol.Get(pkg); ok && e.autoInstalled {
			continue // only a manually requested package roots the walk
		}
		walk(pkg)
	}

	out := make(map[string]*cache.BinaryVersion, len(installed))
	for pkg, v := range installed {
		if reached[pkg] {
			out[pkg] = v
		}
	}
	return out
}
