package store

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/a-h/kv"
)

// IndexKey identifies one on-disk index file by its repository URI,
// distribution, component and category (binary-<arch>/source/i18n), the
// same identity the on-disk lists directory layout encodes into a
// filename.
type IndexKey struct {
	URI          string
	Distribution string
	Component    string
	Category     string
}

// diffChainKey builds the kv key under which an index's locally-applied
// SHA1-Current value is persisted, so a later update run can resume a
// Packages.diff patch chain instead of re-downloading the whole index.
func (k IndexKey) diffChainKey() string {
	return path.Join("/debcore/diffchain",
		url.PathEscape(k.URI),
		url.PathEscape(k.Distribution),
		url.PathEscape(k.Component),
		url.PathEscape(k.Category))
}

// ChainState is a tracked index's last-known patch-chain position.
type ChainState struct {
	SHA1Current string
}

// DiffChainTracker persists, per on-disk index, the last SHA1-Current
// value the local copy was brought up to, so repeated "update" runs with
// no upstream change are no-ops and an interrupted update can resume
// from the diff chain rather than starting over.
type DiffChainTracker struct {
	store kv.Store
}

func NewDiffChainTracker(store kv.Store) *DiffChainTracker {
	return &DiffChainTracker{store: store}
}

// Get returns the last recorded chain state for key, if any.
func (t *DiffChainTracker) Get(ctx context.Context, key IndexKey) (state ChainState, ok bool, err error) {
	_, ok, err = t.store.Get(ctx, key.diffChainKey(), &state)
	if err != nil {
		return ChainState{}, false, fmt.Errorf("diffchain: get %s: %w", key.diffChainKey(), err)
	}
	return state, ok, nil
}

// Set records the new chain position for key after a successful update
// (full download or patch chain application).
func (t *DiffChainTracker) Set(ctx context.Context, key IndexKey, state ChainState) error {
	if err := t.store.Put(ctx, key.diffChainKey(), -1, state); err != nil {
		return fmt.Errorf("diffchain: put %s: %w", key.diffChainKey(), err)
	}
	return nil
}
