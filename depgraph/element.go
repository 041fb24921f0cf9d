// Package depgraph builds the dependency graph the Resolver searches:
// a lazily-unfolded set of Elements reachable from the initial installed
// state and user requests.
package depgraph

import (
	"fmt"

	"github.com/debcore/debcore/cache"
	"github.com/debcore/debcore/relation"
)

// ElementID is a handle into a Builder's element arena.
type ElementID int

// Kind tags which concrete Element shape an ElementID refers to.
type Kind int

const (
	KindVersion Kind = iota
	KindRelation
	KindAntiRelation
	KindSynchronisation
	KindUserRequest
	KindUnsatisfied
)

// Element is the tagged union of dependency-graph node kinds. Every
// concrete element type below implements it; callers switch on Kind()
// rather than using a type switch, so new Elements stay cheap to add
// without touching every call site.
type Element interface {
	Kind() Kind
	Key() string // uniquely identifies this element for unfold memoization
}

// VersionElement represents one candidate (package, version) pair the
// solver may choose to install, or the special "absent" choice for a
// package (Version == nil) representing not installing it at all.
type VersionElement struct {
	Package string
	Version *cache.BinaryVersion // nil means "not installed"
}

func (e *VersionElement) Kind() Kind { return KindVersion }
func (e *VersionElement) Key() string {
	if e.Version == nil {
		return "version:" + e.Package + ":<absent>"
	}
	return "version:" + e.Package + ":" + e.Version.Version.String()
}

// RelationElement represents one forward relation expression (an
// alternative list from a Depends/Recommends/PreDepends line) that must
// be satisfied by at least one of its SatisfyingVersions.
type RelationElement struct {
	Source            *VersionElement
	Expression        relation.Expression
	Soft              bool // Recommends/Suggests: may be left unsatisfied
	SatisfyingVersions []*cache.BinaryVersion
}

func (e *RelationElement) Kind() Kind { return KindRelation }
func (e *RelationElement) Key() string {
	return fmt.Sprintf("relation:%s:%s:%v", e.Source.Package, e.Expression.String(), e.Source.Version)
}

// AntiRelationElement represents one Conflicts/Breaks relation: none of
// the named alternatives may be installed together with the source
// version.
type AntiRelationElement struct {
	Source             *VersionElement
	Expression         relation.Expression
	Breaks             bool // Breaks (soft-conflict, allows coinstall during upgrade) vs Conflicts
	ConflictingVersions []*cache.BinaryVersion
}

func (e *AntiRelationElement) Kind() Kind { return KindAntiRelation }
func (e *AntiRelationElement) Key() string {
	return fmt.Sprintf("antirelation:%s:%s:%v", e.Source.Package, e.Expression.String(), e.Source.Version)
}

// SynchronisationElement ties one binary package's version, while being
// unfolded, to a sibling binary built from the same source package: its
// Successors are every version of RelatedBinary sharing the same source
// version string, plus (when AllowAbsent) the option of not installing
// RelatedBinary at all. Hard marks it as a normal constraint the resolver
// must satisfy; soft means a violation only costs a score penalty.
type SynchronisationElement struct {
	Source              *VersionElement
	SourceName          string
	SourceVersionString string
	RelatedBinary       string
	Successors          []*cache.BinaryVersion
	AllowAbsent         bool
	Hard                bool
}

func (e *SynchronisationElement) Kind() Kind { return KindSynchronisation }
func (e *SynchronisationElement) Key() string {
	return "sync:" + e.SourceName + ":" + e.SourceVersionString + ":" + e.RelatedBinary
}

// RequestKind distinguishes the strength of a user request.
type RequestKind int

const (
	RequestMust RequestKind = iota
	RequestWish
	RequestTry
)

// UserRequestElement represents one command-line install/remove/satisfy
// request, injected directly by the caller rather than discovered while
// unfolding a VersionElement.
type UserRequestElement struct {
	Package  string
	Install  bool // false means removal request
	Relation *relation.Relation
	Strength RequestKind
}

func (e *UserRequestElement) Kind() Kind { return KindUserRequest }
func (e *UserRequestElement) Key() string {
	return fmt.Sprintf("request:%s:%v:%d", e.Package, e.Install, e.Strength)
}

// UnsatisfiedElement marks a relation the builder could prove has no
// satisfying version in the cache at all (a genuinely broken dependency,
// not merely one the current solution fails to satisfy).
type UnsatisfiedElement struct {
	Relation relation.Relation
}

func (e *UnsatisfiedElement) Kind() Kind { return KindUnsatisfied }
func (e *UnsatisfiedElement) Key() string {
	return "unsatisfied:" + e.Relation.String()
}
