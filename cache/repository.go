package cache

// Repository is one configured index source: a parsed Release file plus
// the metadata needed to compute pins and to order preferred versions.
type Repository struct {
	Release ReleaseInfo

	// NotAutomatic and ButAutomaticUpgrades mirror the Release file's
	// "NotAutomatic"/"ButAutomaticUpgrades" yes/no fields, which drop or
	// restore a repository's priority to/from 1.
	NotAutomatic          bool
	ButAutomaticUpgrades  bool

	// Index is the sequence position among configured repositories.
	// GetPreferredVersion does not read it: when priority and version both
	// match, the version added to the cache first wins.
	Index int
}
