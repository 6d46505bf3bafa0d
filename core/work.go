package core

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// PublishThreshold is the minimum proof-of-work value for a block to be
// accepted.
const PublishThreshold = uint64(0xffffffc000000000)

// WorkValue computes the 8-byte BLAKE2b of the little-endian work nonce
// followed by the root, interpreted little-endian.
func WorkValue(root BlockHash, work uint64) uint64 {
	h, _ := blake2b.New(8, nil)
	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], work)
	h.Write(w[:])
	h.Write(root[:])
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// WorkValidate reports whether the work fails the publish threshold. The
// error polarity (true means invalid) matches ValidateMessage.
func WorkValidate(root BlockHash, work uint64) bool {
	return WorkValue(root, work) < PublishThreshold
}

// WorkGenerate searches nonces from the given start until one passes the
// threshold. Intended for tests and tooling; real work generation runs
// outside the ledger core.
func WorkGenerate(root BlockHash, start uint64) uint64 {
	for nonce := start; ; nonce++ {
		if !WorkValidate(root, nonce) {
			return nonce
		}
	}
}
