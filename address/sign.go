package address

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Sign produces a DER-encoded ECDSA signature over messageHash. It
// requires the record to be unlocked (spec.md §4.2 sign).
func (r *Record) Sign(messageHash [32]byte) ([]byte, error) {
	if !r.HasPlainKey {
		return nil, ErrLocked
	}
	priv := secp256k1.PrivKeyFromBytes(r.PlainPrivKey[:])
	defer priv.Zero()
	sig := ecdsa.Sign(priv, messageHash[:])
	return sig.Serialize(), nil
}
