package cache

import (
	"fmt"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// ReleaseInfo is the parsed content of a Release or InRelease file: the
// fields the pin-priority formula and expiry check need. Per-file hash
// entries used by the metadata fetcher live in fetcher/metadata, not
// here, since the Package Cache only cares about the release's identity
// and trust state.
type ReleaseInfo struct {
	Origin      string
	Label       string
	Suite       string
	Codename    string
	Version     string
	Components  []string
	Architectures []string
	Date        time.Time
	ValidUntil  time.Time

	// Verified is set once a detached signature has been checked against
	// a trusted keyring by VerifySignature.
	Verified bool
}

// Expired reports whether the release has passed its Valid-Until date, if
// one was supplied. A zero ValidUntil means the release never expires.
func (r ReleaseInfo) Expired(now time.Time) bool {
	if r.ValidUntil.IsZero() {
		return false
	}
	return now.After(r.ValidUntil)
}

// VerifySignature checks a Release+Release.gpg (detached signature)
// payload against the given trusted keyring and marks the release
// verified on success. Clear-signed InRelease files are not handled.
func (r *ReleaseInfo) VerifySignature(payload, signature []byte, keyring openpgp.EntityList) error {
	block, err := openpgpCheckDetachedSignature(keyring, payload, signature)
	if err != nil {
		return fmt.Errorf("release signature verification failed: %w", err)
	}
	_ = block
	r.Verified = true
	return nil
}

// openpgpCheckDetachedSignature wraps openpgp.CheckDetachedSignature so
// call sites don't need to import bytes.Reader boilerplate at every call.
func openpgpCheckDetachedSignature(keyring openpgp.EntityList, payload, sig []byte) (*openpgp.Entity, error) {
	return checkDetachedSignature(keyring, payload, sig)
}
