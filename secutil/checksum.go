package secutil

import "github.com/decred/dcrd/chaincfg/chainhash"

// ChecksumLen is the width of a record checksum: the first four bytes of
// the double-SHA256 of the checksummed payload, per spec.md §4.1.
const ChecksumLen = 4

// Checksum4 returns the first four bytes of SHA256(SHA256(payload)).
func Checksum4(payload []byte) [ChecksumLen]byte {
	h := chainhash.DoubleHashB(payload)
	var out [ChecksumLen]byte
	copy(out[:], h[:ChecksumLen])
	return out
}

// VerifyChecksum checks payload against chk. If they don't match as-is, it
// performs the single-byte repair scan described in spec.md §4.1: flip each
// byte of payload in turn, recompute the checksum, and accept the first
// flip that matches. It returns the (possibly repaired) payload and whether
// any repair was necessary. If no single-byte flip repairs the mismatch,
// ok is false and repaired is nil.
//
// The repair scan's behavior on multi-byte corruption is intentionally
// undefined beyond "fails closed" — spec.md §9 Open Questions leaves this
// unspecified, so callers must treat a false ok as unrecoverable corruption.
func VerifyChecksum(payload []byte, chk [ChecksumLen]byte) (repaired []byte, wasRepaired bool, ok bool) {
	if Checksum4(payload) == chk {
		return payload, false, true
	}

	work := make([]byte, len(payload))
	copy(work, payload)
	for i := range work {
		for bit := uint(0); bit < 8; bit++ {
			work[i] ^= 1 << bit
			if Checksum4(work) == chk {
				return work, true, true
			}
			work[i] ^= 1 << bit // restore before trying the next bit
		}
	}
	return nil, false, false
}
