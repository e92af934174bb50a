package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/rivine-labs/walletstore/address"
	"github.com/rivine-labs/walletstore/kdf"
	"github.com/rivine-labs/walletstore/safeupdate"
	"github.com/rivine-labs/walletstore/walletfile"
)

// CreateOptions is the one-time input to Create: the chain seed, labels,
// initial pool size, and an optional passphrase that immediately encrypts
// the wallet as part of creation (spec.md §8 scenario S1).
type CreateOptions struct {
	Seed      [32]byte
	ChainCode [32]byte

	ShortLabel string
	LongLabel  string

	// PoolSize is the number of chained addresses to precompute; the
	// resulting LastComputedChainIndex is PoolSize-1.
	PoolSize int

	// Passphrase, if non-empty, encrypts the wallet as part of creation.
	Passphrase []byte
	// KDFParams, if non-nil, is used as-is instead of calibrating; set
	// explicitly by tests that need reproducible KDF cost (spec.md §8 S1).
	KDFParams *kdf.Params
	// CalibrateTargetSeconds/CalibrateMaxMemBytes are used to calibrate the
	// KDF when Passphrase is set and KDFParams is nil.
	CalibrateTargetSeconds float64
	CalibrateMaxMemBytes   uint64
}

// Create builds a brand-new wallet file at cfg.Path and returns a Wallet
// open on it, with its address pool pre-filled to opts.PoolSize and,
// if opts.Passphrase is set, already encrypted and unlocked (spec.md §4.6,
// §4.7, §8 scenario S1).
func Create(cfg Config, opts CreateOptions) (*Wallet, error) {
	if _, err := os.Stat(cfg.Path); err == nil {
		return nil, fmt.Errorf("wallet: %s already exists", cfg.Path)
	}

	root, err := address.NewRoot(opts.Seed, opts.ChainCode)
	if err != nil {
		return nil, err
	}
	first, err := root.ExtendChain()
	if err != nil {
		return nil, err
	}
	if err := root.Reencrypt(zeroDerivedKey); err != nil {
		return nil, err
	}

	w := newWallet(cfg)
	w.root = root
	w.shortLabel = opts.ShortLabel
	w.longLabel = opts.LongLabel
	w.createTime = uint64(cfg.now().Unix())
	w.uniqueID = deriveUniqueID(cfg.ChainMagic, first.Hash160)
	w.state = stateUnencrypted

	header := walletfile.Header{
		ChainMagic:            cfg.ChainMagic,
		UniqueID:              w.uniqueID,
		CreateTime:            w.createTime,
		ShortLabel:            w.shortLabel,
		LongLabel:             w.longLabel,
		HighestUsedChainIndex: address.RootIndex,
		RootAddr:              root,
	}
	data, off, err := walletfile.Pack(header)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(cfg.Path, data, 0600); err != nil {
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	w.off = off

	if err := w.engine.ConsistencyCheck(); err != nil {
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = cfg.poolTarget()
	}
	if err := w.fillAddressPoolLocked(poolSize); err != nil {
		return nil, err
	}

	if w.cfg.Indexer != nil {
		_ = w.cfg.Indexer.RegisterWallet(w.walletID(), true)
	}

	if len(opts.Passphrase) > 0 {
		params := kdf.Params{}
		if opts.KDFParams != nil {
			params = *opts.KDFParams
		} else {
			params = kdf.Calibrate(opts.CalibrateTargetSeconds, opts.CalibrateMaxMemBytes)
		}
		if err := w.encryptLocked(params, opts.Passphrase); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Open loads an existing wallet file at cfg.Path, self-healing any
// interrupted safe-update before reading it (spec.md §4.5 "Consistency
// check... called at every update and on load").
func Open(cfg Config) (*Wallet, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWalletFileMissing
		}
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	w := newWallet(cfg)
	if err := w.engine.ConsistencyCheck(); err != nil {
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}

	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
	}
	if len(data) < walletfile.HeaderSize {
		return nil, fmt.Errorf("wallet: %w: truncated header", ErrCorruptKeyData)
	}

	header, off, repair, err := walletfile.Unpack(data, cfg.ChainMagic)
	if err != nil {
		return nil, mapWalletfileErr(err)
	}
	w.off = off
	w.chainMagic = header.ChainMagic
	w.uniqueID = header.UniqueID
	w.createTime = header.CreateTime
	w.shortLabel = header.ShortLabel
	w.longLabel = header.LongLabel
	w.highestUsedChainIndex = header.HighestUsedChainIndex
	w.kdf = header.KDF
	w.flags = header.Flags
	w.root = header.RootAddr
	w.lastComputedChainIndex = address.RootIndex

	encrypted := header.Flags&walletfile.FlagEncrypted != 0
	if encrypted {
		w.hasKDF = true
		w.state = stateLocked
	} else {
		w.state = stateUnencrypted
	}

	entries, err := walletfile.ReadEntries(data[walletfile.HeaderSize:], int64(walletfile.HeaderSize))
	if err != nil {
		return nil, mapWalletfileErr(err)
	}
	w.applyEntriesLocked(entries)

	if !encrypted {
		if err := w.unlockAllLocked(zeroDerivedKey); err != nil {
			return nil, fmt.Errorf("wallet: %w: %v", ErrCorruptKeyData, err)
		}
	}

	var ops []safeupdate.Op
	if repair.KdfParamsNeedsRewrite {
		ops = append(ops, safeupdate.Modify(off.KdfParams, header.KDF.Serialize()))
	}
	if repair.RootAddrNeedsRewrite {
		ops = append(ops, safeupdate.Modify(off.RootAddr, header.RootAddr.Serialize()))
	}
	if len(ops) > 0 {
		if _, err := w.engine.Apply(ops); err != nil {
			return nil, fmt.Errorf("wallet: %w: %v", ErrWalletIoFailed, err)
		}
	}

	if w.cfg.Indexer != nil {
		_ = w.cfg.Indexer.RegisterWallet(w.walletID(), false)
	}

	return w, nil
}

func (w *Wallet) walletID() string {
	return hex.EncodeToString(w.uniqueID[:])
}

func mapWalletfileErr(err error) error {
	switch {
	case errors.Is(err, walletfile.ErrWrongMagic):
		return fmt.Errorf("wallet: %w", ErrWrongNetwork)
	case errors.Is(err, walletfile.ErrWrongChainMagic):
		return ErrWrongChainMagic
	case errors.Is(err, walletfile.ErrUnsupportedVersion):
		return ErrUnsupportedVersion
	case errors.Is(err, walletfile.ErrCorruptKeyData):
		return ErrCorruptKeyData
	case errors.Is(err, walletfile.ErrUnsupportedRecord):
		return ErrUnsupportedRecordType
	default:
		return err
	}
}
