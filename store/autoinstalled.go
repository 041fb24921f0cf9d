package store

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/a-h/kv"
)

// autoInstalledKey mirrors the extended-states file's per-package block
// identity, keyed purely by package name since the Auto-Installed bit
// is architecture-independent in practice.
func autoInstalledKey(pkg string) string {
	return path.Join("/debcore/auto-installed", url.PathEscape(pkg))
}

type autoInstalledRecord struct {
	Auto bool
}

// AutoInstalledStore persists the extended-states "automatically
// installed" bit the Resolver's version-weight scoring reads (an
// auto-installed package's weight is divided down, preferring manually
// installed ones), using the same kv.Store backing used elsewhere instead
// of a flat extended-states file.
type AutoInstalledStore struct {
	store kv.Store
}

func NewAutoInstalledStore(store kv.Store) *AutoInstalledStore {
	return &AutoInstalledStore{store: store}
}

// IsAutoInstalled reports whether pkg was marked auto-installed. Absence
// of a record, or a record with Auto-Installed: 0, is treated as
// manually installed.
func (s *AutoInstalledStore) IsAutoInstalled(ctx context.Context, pkg string) (bool, error) {
	var rec autoInstalledRecord
	_, ok, err := s.store.Get(ctx, autoInstalledKey(pkg), &rec)
	if err != nil {
		return false, fmt.Errorf("autoinstalled: get %s: %w", pkg, err)
	}
	if !ok {
		return false, nil
	}
	return rec.Auto, nil
}

// SetAutoInstalled records whether pkg was installed to satisfy another
// package's dependency (true) or by explicit user request (false).
func (s *AutoInstalledStore) SetAutoInstalled(ctx context.Context, pkg string, auto bool) error {
	if err := s.store.Put(ctx, autoInstalledKey(pkg), -1, autoInstalledRecord{Auto: auto}); err != nil {
		return fmt.Errorf("autoinstalled: put %s: %w", pkg, err)
	}
	return nil
}

// Forget removes pkg's auto-installed record, used when a package is
// fully removed from the system.
func (s *AutoInstalledStore) Forget(ctx context.Context, pkg string) error {
	if _, err := s.store.Delete(ctx, autoInstalledKey(pkg)); err != nil {
		return fmt.Errorf("autoinstalled: delete %s: %w", pkg, err)
	}
	return nil
}

// ListAutoInstalled returns every package name currently marked
// auto-installed. resolver.AutoRemove does not read this store; it takes
// the auto-installed bits from the Solution.
func (s *AutoInstalledStore) ListAutoInstalled(ctx context.Context) ([]string, error) {
	prefix := "/debcore/auto-installed/"
	records, err := s.store.GetPrefix(ctx, prefix, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("autoinstalled: list: %w", err)
	}
	recs, err := kv.ValuesOf[autoInstalledRecord](records)
	if err != nil {
		return nil, fmt.Errorf("autoinstalled: decode: %w", err)
	}
	var names []string
	for i, r := range recs {
		if r.Auto {
			decoded, err := url.PathUnescape(path.Base(records[i].Key))
			if err != nil {
				continue
			}
			names = append(names, decoded)
		}
	}
	return names, nil
}
