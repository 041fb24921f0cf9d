package cache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/debcore/debcore/relation"
	"github.com/debcore/debcore/version"
)

// Cache is the Package Cache: every binary/source version known across
// configured repositories, plus the installed system state and pin rules.
type Cache struct {
	binary map[string]*Package
	source map[string]*Package // not populated; source versions are kept in sourceVersions
	sourceVersions map[string][]*SourceVersion

	System *SystemState
	Pins   []PinRule
}

// New returns an empty Cache ready to be populated by AddBinaryStanza /
// AddSourceStanza, typically called once per repository index file.
func New(system *SystemState, pins []PinRule) *Cache {
	return &Cache{
		binary:         make(map[string]*Package),
		sourceVersions: make(map[string][]*SourceVersion),
		System:         system,
		Pins:           pins,
	}
}

// AddBinaryStanza parses one Packages-file stanza and indexes it under
// its Package field.
func (c *Cache) AddBinaryStanza(s *Stanza, repo *Repository) error {
	v, err := binaryVersionFromStanza(s, repo)
	if err != nil {
		return err
	}
	p, ok := c.binary[v.Package]
	if !ok {
		p = &Package{Name: v.Package}
		c.binary[v.Package] = p
	}
	p.Versions = append(p.Versions, v)
	return nil
}

// ParseBinaryVersion exposes the same stanza parsing AddBinaryStanza uses
// internally, for callers that need a *BinaryVersion without indexing it
// into a Cache's Package map (the dpkg status file's "installed" set is
// parsed this way, since it belongs on SystemState, not in c.binary).
func ParseBinaryVersion(s *Stanza, repo *Repository) (*BinaryVersion, error) {
	return binaryVersionFromStanza(s, repo)
}

// AddSourceStanza parses one Sources-file stanza.
func (c *Cache) AddSourceStanza(s *Stanza, repo *Repository) error {
	v, err := sourceVersionFromStanza(s, repo)
	if err != nil {
		return err
	}
	c.sourceVersions[v.Package] = append(c.sourceVersions[v.Package], v)
	return nil
}

// GetBinaryPackage returns every known version of a binary package name,
// or nil if the name is entirely unknown.
func (c *Cache) GetBinaryPackage(name string) *Package {
	return c.binary[name]
}

// GetSourcePackage returns every known source version for a package name.
func (c *Cache) GetSourcePackage(name string) []*SourceVersion {
	return c.sourceVersions[name]
}

// GetSourceBinaries returns the binary package names the given source
// name/version pair is declared to build, used by the dependency graph
// builder's source-version synchronisation step. Returns nil if no
// matching source version is indexed.
func (c *Cache) GetSourceBinaries(sourceName string, sourceVer version.Version) []string {
	for _, sv := range c.sourceVersions[sourceName] {
		if version.Compare(sv.Version, sourceVer) == 0 {
			return sv.Binaries
		}
	}
	return nil
}

// GetSatisfyingVersions returns every known version of the relation's
// package that satisfies its version constraint, in no particular order;
// callers needing pin order should pass the result through
// GetSortedPinnedVersions.
func (c *Cache) GetSatisfyingVersions(r relation.Relation) []*BinaryVersion {
	p := c.binary[r.Package]
	if p == nil {
		return nil
	}
	var out []*BinaryVersion
	for _, v := range p.Versions {
		if r.Satisfies(v.Version) {
			out = append(out, v)
		}
	}
	return out
}

// GetPin computes the effective pin priority for one version, against
// the cache's configured pin rules and the version's installed status.
func (c *Cache) GetPin(v *BinaryVersion) int {
	return GetPin(v, c.System != nil && c.System.IsInstalled(v.Package) && c.System.Installed[v.Package] == v, c.Pins)
}

// GetSortedPinnedVersions returns every version of a package sorted by
// descending pin priority, then descending package version, matching the
// resolver's candidate-ordering requirement.
func (c *Cache) GetSortedPinnedVersions(name string) []*BinaryVersion {
	p := c.binary[name]
	if p == nil {
		return nil
	}
	out := make([]*BinaryVersion, len(p.Versions))
	copy(out, p.Versions)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := c.GetPin(out[i]), c.GetPin(out[j])
		if pi != pj {
			return pi > pj
		}
		return version.Compare(out[i].Version, out[j].Version) > 0
	})
	return out
}

// GetPreferredVersion returns the single version GetSortedPinnedVersions
// would place first, or nil if the package is unknown.
func (c *Cache) GetPreferredVersion(name string) *BinaryVersion {
	sorted := c.GetSortedPinnedVersions(name)
	if len(sorted) == 0 {
		return nil
	}
	return sorted[0]
}

// GetLocalizedDescription returns the best-matching long description for
// a version given a list of language tags in preference order (e.g.
// ["de_DE.UTF-8", "de", ""]), falling back to the untranslated ("")
// description if no translation is present.
func (c *Cache) GetLocalizedDescription(v *BinaryVersion, langs []string) string {
	if v.Descriptions == nil {
		return ""
	}
	for _, lang := range langs {
		if d, ok := v.Descriptions[lang]; ok {
			return d
		}
	}
	return v.Descriptions[""]
}

func binaryVersionFromStanza(s *Stanza, repo *Repository) (*BinaryVersion, error) {
	name := s.Get("Package")
	if name == "" {
		return nil, fmt.Errorf("binary stanza missing Package field")
	}
	verRaw := s.Get("Version")
	ver, err := version.Parse(verRaw)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", name, err)
	}

	v := &BinaryVersion{
		VersionCore: VersionCore{
			Package:      name,
			Version:      ver,
			Architecture: s.Get("Architecture"),
			Priority:     Priority(s.Get("Priority")),
			Essential:    s.Get("Essential") == "yes",
			SourceName:   firstNonEmpty(s.Get("Source"), name),
			Repository:   repo,
		},
		Filename: s.Get("Filename"),
		SHA256:   s.Get("SHA256"),
	}

	if src := s.Get("Source"); src != "" {
		if i := strings.IndexByte(src, '('); i >= 0 {
			v.SourceName = strings.TrimSpace(src[:i])
			inner := strings.TrimSuffix(strings.TrimSpace(src[i+1:]), ")")
			sv, err := version.Parse(strings.TrimSpace(inner))
			if err == nil {
				v.SourceVer = sv
			}
		}
	}

	if sz := s.Get("Size"); sz != "" {
		n, err := strconv.ParseInt(sz, 10, 64)
		if err == nil {
			v.Size = n
		}
	}
	if sz := s.Get("Installed-Size"); sz != "" {
		n, err := strconv.ParseInt(sz, 10, 64)
		if err == nil {
			v.InstalledSize = n
		}
	}

	var perr error
	parse := func(field string) relation.Line {
		if perr != nil {
			return nil
		}
		l, err := relation.ParseLine(s.Get(field))
		if err != nil {
			perr = fmt.Errorf("package %s field %s: %w", name, field, err)
		}
		return l
	}
	v.Depends = parse("Depends")
	v.PreDepends = parse("Pre-Depends")
	v.Recommends = parse("Recommends")
	v.Suggests = parse("Suggests")
	v.Conflicts = parse("Conflicts")
	v.Breaks = parse("Breaks")
	v.Replaces = parse("Replaces")
	v.Provides = parse("Provides")
	if perr != nil {
		return nil, perr
	}

	if desc := s.Get("Description"); desc != "" {
		v.Descriptions = map[string]string{"": desc}
	}

	return v, nil
}

func sourceVersionFromStanza(s *Stanza, repo *Repository) (*SourceVersion, error) {
	name := s.Get("Package")
	if name == "" {
		return nil, fmt.Errorf("source stanza missing Package field")
	}
	ver, err := version.Parse(s.Get("Version"))
	if err != nil {
		return nil, fmt.Errorf("source package %s: %w", name, err)
	}
	sv := &SourceVersion{
		VersionCore: VersionCore{
			Package:    name,
			Version:    ver,
			SourceName: name,
			Repository: repo,
		},
	}
	bd, err := relation.ParseLine(s.Get("Build-Depends"))
	if err != nil {
		return nil, fmt.Errorf("source package %s Build-Depends: %w", name, err)
	}
	sv.BuildDepends = bd
	bdi, err := relation.ParseLine(s.Get("Build-Depends-Indep"))
	if err != nil {
		return nil, fmt.Errorf("source package %s Build-Depends-Indep: %w", name, err)
	}
	sv.BuildDependsIndep = bdi
	for _, bin := range strings.Split(s.Get("Binary"), ",") {
		if bin = strings.TrimSpace(bin); bin != "" {
			sv.Binaries = append(sv.Binaries, bin)
		}
	}
	return sv, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
