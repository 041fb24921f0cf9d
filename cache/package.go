// Package cache implements the Package Cache component: parsed binary and
// source package indexes, pin priority computation, and the installed
// system state, all addressed through Cache's lookup methods.
package cache

import (
	"github.com/debcore/debcore/relation"
	"github.com/debcore/debcore/version"
)

// Priority is the Debian archive priority field (required/important/
// standard/optional/extra), used by the default pin-priority formula.
type Priority string

const (
	PriorityRequired  Priority = "required"
	PriorityImportant Priority = "important"
	PriorityStandard  Priority = "standard"
	PriorityOptional  Priority = "optional"
	PriorityExtra     Priority = "extra"
)

// VersionCore holds the fields common to binary and source package
// versions.
type VersionCore struct {
	Package      string
	Version      version.Version
	Architecture string
	Priority     Priority
	Essential    bool
	SourceName   string
	SourceVer    version.Version

	// Repository identifies which index this version came from, used by
	// pin computation (release, origin, component) and by the
	// "preferred version" tie-break on supplied index order.
	Repository *Repository
}

// BinaryVersion is a .deb-producing package version.
type BinaryVersion struct {
	VersionCore

	Depends    relation.Line
	PreDepends relation.Line
	Recommends relation.Line
	Suggests   relation.Line
	Conflicts  relation.Line
	Breaks     relation.Line
	Replaces   relation.Line
	Provides   relation.Line

	Size        int64
	InstalledSize int64
	SHA256      string
	Filename    string

	// Descriptions maps a language tag ("", "de", "fr.UTF-8", ...) to the
	// long description text, used by GetLocalizedDescription.
	Descriptions map[string]string
}

// SourceVersion is a source-package version (a .dsc entry).
type SourceVersion struct {
	VersionCore

	BuildDepends     relation.Line
	BuildDependsIndep relation.Line
	Binaries         []string
}

// Package groups every version of one binary package name known across
// all configured repositories, in the order the repositories were
// supplied (used for GetPreferredVersion's tie-break).
type Package struct {
	Name     string
	Versions []*BinaryVersion
}
