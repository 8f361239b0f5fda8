// Package vbhash implements the Hasher: deterministic
// SHA-256 digests over canonical, CBOR-framed byte streams so that
// concatenation is unambiguous and identical inputs always produce
// identical hashes.
//
// The canonical-CBOR-then-SHA-256 shape relies on CanonicalEncOptions for
// a deterministic encoding (sorted map keys, shortest-form integers).
package vbhash

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a lowercase-hex-renderable SHA-256 output.
type Digest [32]byte

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest (no checkpoint computed).
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func sha256Of(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// ParseDigest parses a lowercase hex string back into a Digest.
func ParseDigest(s string) (Digest, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}
