package depgraph

import (
	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/relation"
)

// Builder owns the element arena and the memoization table that makes
// Unfold idempotent.
type Builder struct {
	cache *cache.Cache

	arena    []Element
	byKey    map[string]ElementID
	unfolded map[ElementID]bool

	// Edges record which RelationElement/AntiRelationElement ids a
	// VersionElement id unfolds to, walked by the Resolver during search.
	edges map[ElementID][]ElementID

	// syncHard controls whether source-version synchronisation
	// (debcore::resolver::synchronise-source-versions) is unfolded as a
	// hard constraint or a soft, score-penalized preference.
	syncHard bool
}

// NewBuilder returns a Builder over the given cache, with no elements yet.
func NewBuilder(c *cache.Cache) *Builder {
	return &Builder{
		cache:    c,
		byKey:    make(map[string]ElementID),
		unfolded: make(map[ElementID]bool),
		edges:    make(map[ElementID][]ElementID),
	}
}

// SetSynchroniseHard sets whether the source-version synchronisation
// elements unfolded from here on are hard constraints rather than soft
// preferences.
func (b *Builder) SetSynchroniseHard(hard bool) { b.syncHard = hard }

// intern returns the ElementID for el, allocating a new arena slot the
// first time a given Key() is seen.
func (b *Builder) intern(el Element) ElementID {
	if id, ok := b.byKey[el.Key()]; ok {
		return id
	}
	id := ElementID(len(b.arena))
	b.arena = append(b.arena, el)
	b.byKey[el.Key()] = id
	return id
}

// Get returns the Element a previously-interned ElementID refers to.
func (b *Builder) Get(id ElementID) Element { return b.arena[id] }

// GetCorrespondingEmptyElement returns the "not installed" VersionElement
// for a package, interning it if this is the first reference.
func (b *Builder) GetCorrespondingEmptyElement(pkg string) ElementID {
	return b.intern(&VersionElement{Package: pkg, Version: nil})
}

// InternVersion returns the VersionElement id for one candidate version.
func (b *Builder) InternVersion(v *cache.BinaryVersion) ElementID {
	return b.intern(&VersionElement{Package: v.Package, Version: v})
}

// AddUserRelationExpression interns a request supplied directly on the
// command line as a UserRequestElement, returning its element id so
// callers can add it to the initial solution's roots.
func (b *Builder) AddUserRelationExpression(pkg string, install bool, rel *relation.Relation, strength RequestKind) ElementID {
	return b.intern(&UserRequestElement{Package: pkg, Install: install, Relation: rel, Strength: strength})
}

// Unfold expands a VersionElement into its RelationElement and
// AntiRelationElement children, memoized so repeated calls for the same
// id are free. Non-version elements unfold to nothing and are marked
// unfolded immediately.
func (b *Builder) Unfold(id ElementID) []ElementID {
	if b.unfolded[id] {
		return b.edges[id]
	}
	b.unfolded[id] = true

	ve, ok := b.arena[id].(*VersionElement)
	if !ok || ve.Version == nil {
		return nil
	}
	v := ve.Version

	var children []ElementID
	addLine := func(line relation.Line, soft bool) {
		for _, expr := range line {
			rel := &RelationElement{Source: ve, Expression: expr, Soft: soft}
			for _, alt := range expr {
				rel.SatisfyingVersions = append(rel.SatisfyingVersions, b.cache.GetSatisfyingVersions(alt)...)
			}
			children = append(children, b.intern(rel))
		}
	}
	addAnti := func(line relation.Line, breaks bool) {
		for _, expr := range line {
			anti := &AntiRelationElement{Source: ve, Expression: expr, Breaks: breaks}
			for _, alt := range expr {
				anti.ConflictingVersions = append(anti.ConflictingVersions, b.cache.GetSatisfyingVersions(alt)...)
			}
			children = append(children, b.intern(anti))
		}
	}

	addLine(v.PreDepends, false)
	addLine(v.Depends, false)
	addLine(v.Recommends, true)
	addLine(v.Suggests, true)
	addAnti(v.Conflicts, false)
	addAnti(v.Breaks, true)

	children = append(children, b.unfoldSynchronisation(ve)...)

	b.edges[id] = children
	return children
}

// unfoldSynchronisation implements the synchronisation step: when ve's
// version is a candidate that is not the currently installed version,
// every other binary package built from the same source version gets a
// SynchronisationElement whose Successors are the versions of that
// sibling binary sharing the source version string, so the resolver
// keeps source-built siblings moving together.
func (b *Builder) unfoldSynchronisation(ve *VersionElement) []ElementID {
	v := ve.Version
	if v.SourceName == "" {
		return nil
	}
	if b.cache.System != nil && b.cache.System.Installed[v.Package] == v {
		return nil
	}

	var children []ElementID
	for _, bin := range b.cache.GetSourceBinaries(v.SourceName, v.SourceVer) {
		if bin == v.Package {
			continue
		}
		var successors []*cache.BinaryVersion
		for _, cand := range b.cache.GetSortedPinnedVersions(bin) {
			if cand.SourceVer.String() == v.SourceVer.String() {
				successors = append(successors, cand)
			}
		}
		sync := &SynchronisationElement{
			Source:              ve,
			SourceName:          v.SourceName,
			SourceVersionString: v.SourceVer.String(),
			RelatedBinary:       bin,
			Successors:          successors,
			AllowAbsent:         true,
			Hard:                b.syncHard,
		}
		children = append(children, b.intern(sync))
	}
	return children
}

// Fill walks every configured root (installed packages plus user
// requests) and unfolds reachable VersionElements until a fixed point.
// It returns the id of every element visited, of every kind, in visit
// order. UserRequestElement roots are visited but not expanded.
func (b *Builder) Fill(roots []ElementID) []ElementID {
	visited := make(map[ElementID]bool)
	var order []ElementID
	var stack []ElementID
	stack = append(stack, roots...)

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)

		switch el := b.arena[id].(type) {
		case *VersionElement:
			for _, childID := range b.Unfold(id) {
				stack = append(stack, childID)
			}
		case *RelationElement:
			for _, v := range el.SatisfyingVersions {
				stack = append(stack, b.InternVersion(v))
			}
		case *AntiRelationElement:
			for _, v := range el.ConflictingVersions {
				stack = append(stack, b.InternVersion(v))
			}
		case *SynchronisationElement:
			for _, v := range el.Successors {
				stack = append(stack, b.InternVersion(v))
			}
			if el.AllowAbsent {
				stack = append(stack, b.GetCorrespondingEmptyElement(el.RelatedBinary))
			}
		}
	}
	return order
}

// Len returns the number of interned elements, mostly useful for tests
// and metrics.
func (b *Builder) Len() int { return len(b.arena) }
