package walletfile

import "errors"

// Typed failures surfaced by the wallet file codec, matching spec.md §7.
var (
	ErrWrongMagic         = errors.New("walletfile: not a wallet file (bad magic)")
	ErrUnsupportedVersion = errors.New("walletfile: unsupported wallet file version")
	ErrWrongChainMagic    = errors.New("walletfile: wallet is for a different chain")
	ErrCorruptKeyData     = errors.New("walletfile: key data failed checksum repair")
	ErrUnsupportedRecord  = errors.New("walletfile: unsupported entry record type")
)
