package cache

import (
	"bytes"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// checkDetachedSignature verifies sig over payload against keyring,
// accepting either a binary or armored detached signature, mirroring how
// apt accepts both Release.gpg encodings in the wild.
func checkDetachedSignature(keyring openpgp.EntityList, payload, sig []byte) (*openpgp.Entity, error) {
	signer, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(payload), bytes.NewReader(sig), nil)
	if err == nil {
		return signer, nil
	}
	signer, armErr := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(payload), bytes.NewReader(sig), nil)
	if armErr == nil {
		return signer, nil
	}
	return nil, err
}
