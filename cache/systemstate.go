package cache

// SystemState is the set of packages currently installed (dpkg status
// database), keyed by package name. A package that is not present here
// is simply not installed; partially-installed/config-files-only states
// are the installer's concern, not the cache's.
type SystemState struct {
	Installed map[string]*BinaryVersion

	// AutoInstalled records package names that were installed only to
	// satisfy a dependency, not by explicit user request (extended-states
	// "Auto-Installed: 1"), used by the Resolver's auto-removal pass.
	AutoInstalled map[string]bool

	// Reinstreq records package names dpkg's status file flags as stuck
	// "half-installed, reinstall required", used by the Scheduler to
	// decide whether a removal needs --force-remove-reinstreq.
	Reinstreq map[string]bool
}

// NewSystemState returns an empty state with initialized maps.
func NewSystemState() *SystemState {
	return &SystemState{
		Installed:     make(map[string]*BinaryVersion),
		AutoInstalled: make(map[string]bool),
		Reinstreq:     make(map[string]bool),
	}
}

// IsInstalled reports whether pkg has any installed version.
func (s *SystemState) IsInstalled(pkg string) bool {
	_, ok := s.Installed[pkg]
	return ok
}

// IsAutoInstalled reports whether pkg was installed only as a dependency.
func (s *SystemState) IsAutoInstalled(pkg string) bool {
	return s.AutoInstalled[pkg]
}

// IsReinstreq reports whether pkg's installed record is stuck requiring
// reinstallation.
func (s *SystemState) IsReinstreq(pkg string) bool {
	return s.Reinstreq[pkg]
}
