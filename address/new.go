package address

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// NewRoot builds the wallet's root address record (chainIndex = RootIndex)
// from a 32-byte seed and a 32-byte chain code (spec.md §3 invariant 1,
// "root address record"). The returned record is unlocked/plaintext; the
// caller encrypts it as part of wallet creation if encryption is desired.
func NewRoot(seed [privKeyLen]byte, chainCode [chainCodeLen]byte) (*Record, error) {
	priv := secp256k1.PrivKeyFromBytes(seed[:])
	defer priv.Zero()

	r := &Record{
		ChainCode:  chainCode,
		ChainIndex: RootIndex,
	}
	copy(r.PublicKey[:], priv.PubKey().SerializeUncompressed())
	r.PlainPrivKey = seed
	r.HasPlainKey = true
	r.Hash160 = Hash160FromPubKey(r.PublicKey[:])
	return r, nil
}

// importedChainCode is the constant 0xFF-filled chain code every imported
// (non-chained) address carries, per spec.md §4.7 "Imported-key insertion".
var importedChainCode = func() [chainCodeLen]byte {
	var cc [chainCodeLen]byte
	for i := range cc {
		cc[i] = 0xFF
	}
	return cc
}()

// NewImported builds an imported address record (chainIndex =
// ImportedIndex) from raw private key material. If wantHash160 is
// non-zero, it must match the hash160 computed from the derived public
// key or ErrPubKeyMismatch is returned (spec.md §4.7: "reject if supplied
// hash/public key disagree with computed").
func NewImported(privKey [privKeyLen]byte, wantHash160 *[hash160Len]byte) (*Record, error) {
	priv := secp256k1.PrivKeyFromBytes(privKey[:])
	defer priv.Zero()

	r := &Record{
		ChainCode:  importedChainCode,
		ChainIndex: ImportedIndex,
	}
	copy(r.PublicKey[:], priv.PubKey().SerializeUncompressed())
	r.Hash160 = Hash160FromPubKey(r.PublicKey[:])
	if wantHash160 != nil && *wantHash160 != r.Hash160 {
		return nil, ErrPubKeyMismatch
	}
	r.PlainPrivKey = privKey
	r.HasPlainKey = true
	return r, nil
}
