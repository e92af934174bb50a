// Package address implements the deterministic address record (spec.md
// §4.2, the "external address primitive" spec.md §1 treats as an opaque
// collaborator): key material, chain-code-multiplicative chain extension,
// lock/unlock with lazy private-key materialization, DER signing, and the
// fixed-width per-record serialization the wallet codec stores.
package address

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/NebulousLabs/fastrand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/rivine-labs/walletstore/binpack"
	"github.com/rivine-labs/walletstore/secutil"
	"golang.org/x/crypto/ripemd160"
)

const (
	// RootIndex identifies the uninitialized root address record, the
	// wallet's chain-of-trust anchor (spec.md §3 "Address record").
	RootIndex int64 = -1
	// ImportedIndex identifies an address imported from raw key material
	// rather than derived along the chain.
	ImportedIndex int64 = -2

	pubKeyLen     = 65
	chainCodeLen  = 32
	ivLen         = 16
	privKeyLen    = 32
	hash160Len    = 20
	importedFFLen = 32
)

var (
	// ErrLocked is returned by operations that require a materialized
	// plaintext private key while the address only holds encrypted or
	// deferred key material.
	ErrLocked = errors.New("address: private key is not available (locked)")
	// ErrNoPrivateKey means the address has no private key at all (a
	// watching-only entry).
	ErrNoPrivateKey = errors.New("address: no private key material")
	// ErrCorrupt is returned when a serialized record fails checksum
	// verification and is not single-byte repairable.
	ErrCorrupt = errors.New("address: record failed checksum and is not repairable")
	// ErrPubKeyMismatch means a supplied/derived public key did not match
	// the one computed from the private key.
	ErrPubKeyMismatch = errors.New("address: public key does not match private key")
)

// Record is one address entry: public key, chain code, chain index, and
// either a plaintext or encrypted private key, plus the bookkeeping
// needed to lazily materialize a deferred private key across an
// unlock boundary (spec.md §4.2, §4.6 "Locked-wallet extension").
type Record struct {
	PublicKey [pubKeyLen]byte
	ChainCode [chainCodeLen]byte
	Hash160   [hash160Len]byte
	ChainIndex int64

	// IV and EncryptedPrivKey hold this address's own encrypted private
	// key, when present. PlainPrivKey holds the materialized private key
	// while unlocked (or always, for an unencrypted wallet).
	IV               [ivLen]byte
	EncryptedPrivKey [privKeyLen]byte
	HasEncryptedKey  bool
	PlainPrivKey     [privKeyLen]byte
	HasPlainKey      bool

	// Deferred-materialization bookkeeping (spec.md §4.2 extendChain,
	// §4.6 locked pool fill): when true, PlainPrivKey/EncryptedPrivKey
	// are both absent and must be derived on next unlock by decrypting
	// AncestorEncryptedKey and walking the chain forward Depth steps.
	CreatePrivKeyNextUnlock bool
	AncestorIV              [ivLen]byte
	AncestorEncryptedKey    [privKeyLen]byte
	Depth                   uint32

	FirstSeenTime  uint64
	FirstSeenBlock uint32
	LastSeenTime   uint64
	LastSeenBlock  uint32

	// WalletByteLoc is the in-memory-only byte offset of this record's
	// payload within the wallet file (recordStart + 1 type byte + 20-byte
	// id), set by the codec after a durable safe-update (spec.md §4.4/§4.5).
	// It is not part of the serialized form.
	WalletByteLoc int64
}

// RecordWidth is the fixed on-disk width of a serialized Record, computed
// once from an empty instance, matching the teacher's own
// "pybtcaddrSize = len(PyBtcAddress().serialize())" idiom.
var RecordWidth = len((&Record{}).Serialize())

// Serialize packs the record into its fixed-width on-disk form:
// pubkey || chaincode || chainIndex || iv || encryptedPrivKey ||
// flags || ancestorIV || ancestorEncryptedKey || depth ||
// firstSeenTime || firstSeenBlock || lastSeenTime || lastSeenBlock ||
// checksum4(everything above).
func (r *Record) Serialize() []byte {
	w := binpack.NewWriter(256)
	w.PutFixed(r.PublicKey[:], pubKeyLen)
	w.PutFixed(r.ChainCode[:], chainCodeLen)
	w.PutInt64(r.ChainIndex)
	w.PutFixed(r.IV[:], ivLen)
	w.PutFixed(r.EncryptedPrivKey[:], privKeyLen)
	w.PutUint8(r.flags())
	w.PutFixed(r.AncestorIV[:], ivLen)
	w.PutFixed(r.AncestorEncryptedKey[:], privKeyLen)
	w.PutUint32(r.Depth)
	w.PutUint64(r.FirstSeenTime)
	w.PutUint32(r.FirstSeenBlock)
	w.PutUint64(r.LastSeenTime)
	w.PutUint32(r.LastSeenBlock)

	chk := secutil.Checksum4(w.Bytes())
	w.PutFixed(chk[:], secutil.ChecksumLen)
	return w.Bytes()
}

const (
	flagHasEncryptedKey = 1 << 0
	flagHasPlainKey     = 1 << 1
	flagDeferred        = 1 << 2
)

func (r *Record) flags() uint8 {
	var f uint8
	if r.HasEncryptedKey {
		f |= flagHasEncryptedKey
	}
	if r.HasPlainKey {
		f |= flagHasPlainKey
	}
	if r.CreatePrivKeyNextUnlock {
		f |= flagDeferred
	}
	return f
}

// Unserialize returns a Record whenever the checksum verifies or the
// single-byte checksum repair of spec.md §4.1 succeeds; it returns an
// error for input of the wrong length and ErrCorrupt when the repair
// fails. wasRepaired
// signals to the caller (the wallet codec) that it should schedule a
// rewrite of this record's slot.
func Unserialize(data []byte) (rec *Record, wasRepaired bool, err error) {
	if len(data) != RecordWidth {
		return nil, false, fmt.Errorf("address: record must be %d bytes, got %d", RecordWidth, len(data))
	}
	checksummed := data[:len(data)-secutil.ChecksumLen]
	var chk [secutil.ChecksumLen]byte
	copy(chk[:], data[len(data)-secutil.ChecksumLen:])

	repaired, repairedFlag, ok := secutil.VerifyChecksum(checksummed, chk)
	if !ok {
		return nil, false, ErrCorrupt
	}

	r := binpack.NewReader(repaired)
	rec = &Record{}
	pk, _ := r.Fixed(pubKeyLen)
	copy(rec.PublicKey[:], pk)
	cc, _ := r.Fixed(chainCodeLen)
	copy(rec.ChainCode[:], cc)
	rec.ChainIndex, err = r.Int64()
	if err != nil {
		return nil, false, err
	}
	iv, _ := r.Fixed(ivLen)
	copy(rec.IV[:], iv)
	epk, _ := r.Fixed(privKeyLen)
	copy(rec.EncryptedPrivKey[:], epk)
	flagByte, err := r.Uint8()
	if err != nil {
		return nil, false, err
	}
	rec.HasEncryptedKey = flagByte&flagHasEncryptedKey != 0
	rec.HasPlainKey = flagByte&flagHasPlainKey != 0
	rec.CreatePrivKeyNextUnlock = flagByte&flagDeferred != 0
	aiv, _ := r.Fixed(ivLen)
	copy(rec.AncestorIV[:], aiv)
	aek, _ := r.Fixed(privKeyLen)
	copy(rec.AncestorEncryptedKey[:], aek)
	rec.Depth, err = r.Uint32()
	if err != nil {
		return nil, false, err
	}
	rec.FirstSeenTime, err = r.Uint64()
	if err != nil {
		return nil, false, err
	}
	rec.FirstSeenBlock, err = r.Uint32()
	if err != nil {
		return nil, false, err
	}
	rec.LastSeenTime, err = r.Uint64()
	if err != nil {
		return nil, false, err
	}
	rec.LastSeenBlock, err = r.Uint32()
	if err != nil {
		return nil, false, err
	}

	// Serialize writes the HasPlainKey flag bit for an unlocked record, but
	// the plaintext key itself is never stored, so a freshly unserialized
	// record never holds one: the flag read above is cleared here.
	rec.HasPlainKey = false

	return rec, repairedFlag, nil
}

// Hash160FromPubKey computes ripemd160(sha256(pubkey)), the address
// identity hash referenced throughout spec.md §3/§4.
func Hash160FromPubKey(pubKey []byte) [hash160Len]byte {
	shaSum := sha256.Sum256(pubKey)
	rip := ripemd160.New()
	rip.Write(shaSum[:])
	sum := rip.Sum(nil)
	var out [hash160Len]byte
	copy(out[:], sum)
	return out
}

func aesCBCCrypt(key [32]byte, iv [ivLen]byte, in []byte, encrypt bool) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	if len(in)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("address: plaintext/ciphertext must be a multiple of %d bytes", aes.BlockSize)
	}
	out := make([]byte, len(in))
	if encrypt {
		cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(out, in)
	} else {
		cipher.NewCBCDecrypter(block, iv[:]).CryptBlocks(out, in)
	}
	return out, nil
}

// NewIV returns a fresh random IV using the teacher's fastrand idiom.
func NewIV() [ivLen]byte {
	var iv [ivLen]byte
	fastrand.Read(iv[:])
	return iv
}

func pubKeyFromPriv(priv *secp256k1.PrivateKey) [pubKeyLen]byte {
	var out [pubKeyLen]byte
	copy(out[:], priv.PubKey().SerializeUncompressed())
	return out
}
