package vbdisplay

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ShortID derives an 8-hex-character display id from a checkpoint digest's
// bytes, for `status`/`diff` output where a full 64-character H_chk would
// be unreadable.
func ShortID(digestBytes []byte) string {
	h, err := blake2b.New(4, nil)
	if err != nil {
		// blake2b.New only errors on invalid size/key length; 4 bytes and a
		// nil key are always valid, so this path is unreachable.
		panic(err)
	}
	h.Write(digestBytes)
	return hex.EncodeToString(h.Sum(nil))
}
