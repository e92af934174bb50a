package address

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/rivine-labs/walletstore/secutil"
)

// extendPrivateKey computes nextPriv = (parentPriv * chainCode) mod N, the
// multiplicative chain used throughout (spec.md §4.2, §9 "Address
// primitive", grounded on Armory's getChildExtPubFromRoot/extendChain).
func extendPrivateKey(parent *secp256k1.PrivateKey, chainCode [chainCodeLen]byte) *secp256k1.PrivateKey {
	var chain secp256k1.ModNScalar
	chain.SetByteSlice(chainCode[:])

	var next secp256k1.ModNScalar
	next.Mul2(&parent.Key, &chain)
	return secp256k1.NewPrivateKey(&next)
}

// extendPublicKey computes nextPub = chainCode * parentPub as an EC point
// scalar multiplication, which is what lets a locked wallet (or a
// watching-only wallet) extend its address chain without ever touching a
// private key (spec.md §1 "one to actually determine the next PUBLIC KEY
// in the address chain without actually having access to the private
// keys").
func extendPublicKey(parent *secp256k1.PublicKey, chainCode [chainCodeLen]byte) *secp256k1.PublicKey {
	var chain secp256k1.ModNScalar
	chain.SetByteSlice(chainCode[:])

	var parentJ, resultJ secp256k1.JacobianPoint
	parent.AsJacobian(&parentJ)
	secp256k1.ScalarMultNonConst(&chain, &parentJ, &resultJ)
	resultJ.ToAffine()
	return secp256k1.NewPublicKey(&resultJ.X, &resultJ.Y)
}

// ExtendChain derives the next address on the chain from r (spec.md §4.2
// extendChain). If r is unlocked (has a plaintext private key), the child
// is fully materialized. If r is locked but holds only encrypted key
// material, the child is constructed from r's public key and chain code
// alone, carries CreatePrivKeyNextUnlock=true, and remembers the nearest
// materializable ancestor so a later Unlock can walk forward to it.
func (r *Record) ExtendChain() (*Record, error) {
	child := &Record{
		ChainCode:  r.ChainCode,
		ChainIndex: r.ChainIndex + 1,
	}

	if r.HasPlainKey {
		parentPriv := secp256k1.PrivKeyFromBytes(r.PlainPrivKey[:])
		childPriv := extendPrivateKey(parentPriv, r.ChainCode)
		child.PlainPrivKey = [privKeyLen]byte(childPriv.Serialize())
		child.HasPlainKey = true
		copy(child.PublicKey[:], childPriv.PubKey().SerializeUncompressed())
		childPriv.Zero()
		return finishExtend(child)
	}

	parentPub, err := secp256k1.ParsePubKey(r.PublicKey[:])
	if err != nil {
		return nil, err
	}
	childPub := extendPublicKey(parentPub, r.ChainCode)
	copy(child.PublicKey[:], childPub.SerializeUncompressed())

	if r.HasEncryptedKey || r.CreatePrivKeyNextUnlock {
		child.CreatePrivKeyNextUnlock = true
		if r.CreatePrivKeyNextUnlock {
			child.AncestorIV = r.AncestorIV
			child.AncestorEncryptedKey = r.AncestorEncryptedKey
			child.Depth = r.Depth + 1
		} else {
			child.AncestorIV = r.IV
			child.AncestorEncryptedKey = r.EncryptedPrivKey
			child.Depth = 1
		}
	}
	return finishExtend(child)
}

func finishExtend(child *Record) (*Record, error) {
	child.Hash160 = Hash160FromPubKey(child.PublicKey[:])
	return child, nil
}

// Lock wipes the plaintext private key if this record holds (or can
// derive) an encrypted copy; otherwise unlockKey is required to produce
// one before the plaintext can be safely discarded (spec.md §4.2 lock).
func (r *Record) Lock(unlockKey *[32]byte) error {
	if !r.HasPlainKey {
		return nil // already locked/idempotent, spec.md §8 property 5
	}
	if !r.HasEncryptedKey {
		if unlockKey == nil {
			return ErrLocked
		}
		if err := r.encryptInPlace(*unlockKey); err != nil {
			return err
		}
	}
	secutil.Wipe(r.PlainPrivKey[:])
	r.HasPlainKey = false
	return nil
}

func (r *Record) encryptInPlace(key [32]byte) error {
	if r.IV == ([ivLen]byte{}) {
		r.IV = NewIV()
	}
	ct, err := aesCBCCrypt(key, r.IV, r.PlainPrivKey[:], true)
	if err != nil {
		return err
	}
	copy(r.EncryptedPrivKey[:], ct)
	r.HasEncryptedKey = true
	return nil
}

// Unlock decrypts the private key under unlockKey, materializing it via
// the deferred-ancestor chain walk when CreatePrivKeyNextUnlock is set
// (spec.md §4.6 "Locked-wallet extension"), and verifies the resulting
// public key matches what was already on record.
func (r *Record) Unlock(unlockKey [32]byte) error {
	if r.HasPlainKey {
		return nil // idempotent, spec.md §8 property 5
	}

	var plain []byte
	var err error
	if r.CreatePrivKeyNextUnlock {
		plain, err = materializeFromAncestor(unlockKey, r.AncestorIV, r.AncestorEncryptedKey, r.ChainCode, r.Depth)
	} else {
		if !r.HasEncryptedKey {
			return ErrNoPrivateKey
		}
		plain, err = aesCBCCrypt(unlockKey, r.IV, r.EncryptedPrivKey[:], false)
	}
	if err != nil {
		return err
	}

	priv := secp256k1.PrivKeyFromBytes(plain)
	defer priv.Zero()
	computedPub := priv.PubKey().SerializeUncompressed()
	if string(computedPub) != string(r.PublicKey[:]) {
		secutil.Wipe(plain)
		return ErrPubKeyMismatch
	}

	copy(r.PlainPrivKey[:], plain)
	r.HasPlainKey = true
	secutil.Wipe(plain)

	if r.CreatePrivKeyNextUnlock {
		// Rewrite this address's own encrypted form so a future unlock
		// doesn't need to re-walk the ancestor chain (spec.md §4.6: "each
		// such address is rewritten in place via C5").
		r.CreatePrivKeyNextUnlock = false
		if err := r.encryptInPlace(unlockKey); err != nil {
			return err
		}
	}
	return nil
}

// materializeFromAncestor decrypts the ancestor's encrypted private key
// and walks the multiplicative chain forward depth steps.
func materializeFromAncestor(unlockKey [32]byte, ancestorIV [ivLen]byte, ancestorEncrypted [privKeyLen]byte, chainCode [chainCodeLen]byte, depth uint32) ([]byte, error) {
	ancestorPlain, err := aesCBCCrypt(unlockKey, ancestorIV, ancestorEncrypted[:], false)
	if err != nil {
		return nil, err
	}
	priv := secp256k1.PrivKeyFromBytes(ancestorPlain)
	secutil.Wipe(ancestorPlain)
	defer priv.Zero()

	for i := uint32(0); i < depth; i++ {
		next := extendPrivateKey(priv, chainCode)
		priv.Zero()
		priv = next
	}
	return priv.Serialize(), nil
}

// Reencrypt re-encrypts the record's materialized private key under a new
// key, without disturbing the plaintext copy held in memory (spec.md §4.7
// "Key-change re-encryption"; also used for the Unencrypted<->Encrypted
// transitions, which are a key change between a wallet-wide default key
// and a passphrase-derived one). The existing IV is preserved (only
// encryptInPlace's own zero-IV guard generates one) so that a passphrase
// round trip reproduces the original serialization, per spec §8 property
// 6 -- matching the original's changeEncryptionKey, which never rotates
// binInitVect16.
func (r *Record) Reencrypt(key [32]byte) error {
	if !r.HasPlainKey {
		return ErrLocked
	}
	return r.encryptInPlace(key)
}

// VerifyEncryptionKey decrypts this record's stored encrypted private key
// under key, re-derives the public key, and compares it against the
// record's stored public key -- the "canary" check of spec.md §4.2.
func (r *Record) VerifyEncryptionKey(key [32]byte) bool {
	if !r.HasEncryptedKey {
		return false
	}
	plain, err := aesCBCCrypt(key, r.IV, r.EncryptedPrivKey[:], false)
	if err != nil {
		return false
	}
	defer secutil.Wipe(plain)

	priv := secp256k1.PrivKeyFromBytes(plain)
	defer priv.Zero()
	return string(priv.PubKey().SerializeUncompressed()) == string(r.PublicKey[:])
}

