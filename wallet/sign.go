package wallet

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/rivine-labs/walletstore/address"
)

// ScriptType tags how a PTX input's destination is redeemed, per spec.md
// §4.7 "Transaction signing" and §9's minimal signing contract.
type ScriptType int

const (
	ScriptP2PKH ScriptType = iota
	ScriptP2SH
	ScriptBarePubkey
	ScriptBareMultisig
)

// PTXInput is the minimum a caller's transaction type must expose per
// input for the wallet to decide whether it can sign it and how, per
// spec.md §9 "Signing against external transaction type": "per-input
// {scriptType, outputScript, redeemScript?, destinationHashes[]}".
type PTXInput struct {
	ScriptType   ScriptType
	OutputScript []byte
	// RedeemScript is set for ScriptP2SH; its hash160 must equal the
	// relevant destination hash.
	RedeemScript []byte
	// DestinationHashes lists the hash160(es) this input pays to: one for
	// P2PKH/P2SH/bare-pubkey, several for bare-multisig.
	DestinationHashes [][20]byte
}

// PTX is the transaction type held behind an interface so the signer never
// depends on a concrete transaction encoding (spec.md §9).
type PTX interface {
	NumInputs() int
	Input(i int) PTXInput
	// SigningPreimage returns the serialized transaction with every input
	// script emptied except scriptOverride at inputIndex, and hashCode
	// appended, ready to be hashed (spec.md §4.7 "build a single-input-
	// isolated copy... append hashcode (u32)").
	SigningPreimage(inputIndex int, scriptOverride []byte, hashCode uint32) ([]byte, error)
	// SetInputScript attaches the finished scriptSig to input i.
	SetInputScript(i int, scriptSig []byte)
}

// SighashAll matches the conventional hashcode appended to the signing
// preimage before the final double-SHA256; callers needing another
// hashcode construct PTX.SigningPreimage accordingly.
const SighashAll uint32 = 1

// pushData prefixes b with Bitcoin-style script-push-data length encoding:
// a single length byte for b under 76 bytes (the only sizes a DER
// signature, a compressed/uncompressed pubkey, or a reasonable P2SH
// redeem script take).
func pushData(b []byte) []byte {
	if len(b) >= 0x4c {
		out := make([]byte, 3+len(b))
		out[0] = 0x4d
		binary.LittleEndian.PutUint16(out[1:3], uint16(len(b)))
		copy(out[3:], b)
		return out
	}
	out := make([]byte, 1+len(b))
	out[0] = byte(len(b))
	copy(out[1:], b)
	return out
}

// signableInputLocked finds the wallet-owned address (if any) able to sign
// input in, returning its record. For multisig it returns the first member
// address this wallet owns, per spec.md "at most one matching member per
// input".
func (w *Wallet) signableInputLocked(in PTXInput) *address.Record {
	for _, h := range in.DestinationHashes {
		if rec, ok := w.addrMap[h]; ok && rec.HasPlainKey {
			return rec
		}
	}
	return nil
}

// SignTransaction signs every input of tx whose destination address this
// wallet owns and has unlocked (spec.md §4.7 "Transaction signing"). The
// wallet must be Unlocked if it is encrypted; an Unencrypted wallet's
// addresses are always materialized. After signing, any used address
// beyond HighestUsedChainIndex advances the pool (spec.md §4.6/§4.7).
func (w *Wallet) SignTransaction(tx PTX) (int, error) {
	if err := w.tg.Add(); err != nil {
		return 0, errShutdown
	}
	defer w.tg.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == stateLocked {
		return 0, ErrWalletLocked
	}

	signed := 0
	highest := w.highestUsedChainIndex
	for i := 0; i < tx.NumInputs(); i++ {
		in := tx.Input(i)
		rec := w.signableInputLocked(in)
		if rec == nil {
			continue
		}

		scriptOverride := in.OutputScript
		if in.ScriptType == ScriptP2SH {
			scriptOverride = in.RedeemScript
		}
		preimage, err := tx.SigningPreimage(i, scriptOverride, SighashAll)
		if err != nil {
			return signed, err
		}

		digest := chainhash.DoubleHashB(preimage)
		var digest32 [32]byte
		copy(digest32[:], digest)

		sig, err := rec.Sign(digest32)
		if err != nil {
			return signed, fmt.Errorf("wallet: sign input %d: %w", i, err)
		}
		sigWithHashCode := append(sig, byte(SighashAll))

		var scriptSig []byte
		switch in.ScriptType {
		case ScriptP2PKH:
			scriptSig = append(pushData(sigWithHashCode), pushData(rec.PublicKey[:])...)
		case ScriptP2SH:
			scriptSig = append(pushData(sigWithHashCode), pushData(in.RedeemScript)...)
		case ScriptBarePubkey, ScriptBareMultisig:
			scriptSig = pushData(sigWithHashCode)
		default:
			return signed, fmt.Errorf("wallet: unsupported script type %d", in.ScriptType)
		}

		tx.SetInputScript(i, scriptSig)
		signed++

		if rec.ChainIndex > highest {
			highest = rec.ChainIndex
		}
	}

	if highest != w.highestUsedChainIndex {
		if err := w.advanceHighestIndexLocked(highest); err != nil {
			return signed, err
		}
	}
	return signed, nil
}
