// Package kdf implements the memory-hard passphrase KDF described in
// spec.md §4.3: parameters serialize to a fixed 256-byte block with a
// checksum-with-repair scheme identical to the rest of the wallet format,
// and calibration picks parameters that fit a time/memory budget.
package kdf

import (
	"fmt"

	"github.com/NebulousLabs/fastrand"
	"github.com/rivine-labs/walletstore/binpack"
	"github.com/rivine-labs/walletstore/secutil"
)

// BlockSize is the fixed on-disk width of a serialized Params block.
const BlockSize = 256

// SaltSize is the width of the KDF salt.
const SaltSize = 32

// Params is the (memoryBytes, iterations, salt) tuple that defines the
// wallet's passphrase-to-key transform, per spec.md §4.3/GLOSSARY.
type Params struct {
	MemoryBytes uint64
	Iterations  uint32
	Salt        [SaltSize]byte
}

// checksummedWidth is the portion of the block that feeds Checksum4: the
// 8-byte memory field, 4-byte iteration field, and 32-byte salt.
const checksummedWidth = 8 + 4 + SaltSize

// Serialize packs Params into a BlockSize-byte record:
// memoryBytes || iterations || salt || checksum4(first 44 bytes) || zero-pad.
func (p Params) Serialize() []byte {
	w := binpack.NewWriter(BlockSize)
	w.PutUint64(p.MemoryBytes)
	w.PutUint32(p.Iterations)
	w.PutFixed(p.Salt[:], SaltSize)
	chk := secutil.Checksum4(w.Bytes())
	w.PutFixed(chk[:], secutil.ChecksumLen)
	out := make([]byte, BlockSize)
	copy(out, w.Bytes())
	return out
}

// Unserialize parses a BlockSize-byte block into Params, applying the
// single-byte checksum repair of spec.md §4.1 if necessary. needsRewrite
// is true when the on-disk block differed from the repaired block and the
// caller (walletfile/safeupdate) should schedule an in-place rewrite of
// the KDF slot, per spec.md §4.3.
func Unserialize(block []byte) (p Params, needsRewrite bool, err error) {
	if len(block) != BlockSize {
		return Params{}, false, fmt.Errorf("kdf: block must be %d bytes, got %d", BlockSize, len(block))
	}

	checksummed := block[:checksummedWidth]
	var chk [secutil.ChecksumLen]byte
	copy(chk[:], block[checksummedWidth:checksummedWidth+secutil.ChecksumLen])

	repaired, wasRepaired, ok := secutil.VerifyChecksum(checksummed, chk)
	if !ok {
		return Params{}, false, fmt.Errorf("kdf: checksum failed and is not single-byte repairable")
	}

	r := binpack.NewReader(repaired)
	mem, err := r.Uint64()
	if err != nil {
		return Params{}, false, err
	}
	iters, err := r.Uint32()
	if err != nil {
		return Params{}, false, err
	}
	saltBytes, err := r.Fixed(SaltSize)
	if err != nil {
		return Params{}, false, err
	}
	p.MemoryBytes = mem
	p.Iterations = iters
	copy(p.Salt[:], saltBytes)
	return p, wasRepaired, nil
}

// NewSalt generates a fresh random salt using the same fastrand source the
// teacher uses for key material (crypto/signatures.go's fastrand.Reader).
func NewSalt() [SaltSize]byte {
	var s [SaltSize]byte
	fastrand.Read(s[:])
	return s
}
