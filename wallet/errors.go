package wallet

import "errors"

// Typed failures the wallet facade raises, matching spec.md §7. Every other
// internal inconsistency (e.g. a chained address missing from the index
// map) is a developer error and panics via build.Critical instead of
// surfacing here.
var (
	ErrWalletLocked        = errors.New("wallet: operation requires an unlocked wallet")
	ErrBadPassphrase       = errors.New("wallet: passphrase failed verification")
	ErrKdfAbsent           = errors.New("wallet: encryption requested but no KDF parameters are configured")
	ErrCorruptKeyData      = errors.New("wallet: an address record failed checksum repair")
	ErrWalletFileMissing   = errors.New("wallet: wallet file does not exist")
	ErrWalletFileBusy      = errors.New("wallet: wallet file is already open")
	ErrWalletIoFailed      = errors.New("wallet: i/o error accessing the wallet file")
	ErrDuplicateAddress    = errors.New("wallet: address is already present in the wallet")
	ErrUnknownAddress      = errors.New("wallet: address is not known to this wallet")
	ErrNonImportedDelete   = errors.New("wallet: only imported addresses can be deleted")
	ErrChainIndexOutOfRange = errors.New("wallet: chain index is out of range")
	ErrWrongNetwork        = errors.New("wallet: wallet file is for a different network")
	ErrWrongChainMagic     = errors.New("wallet: wallet file is for a different chain")
	ErrUnsupportedVersion  = errors.New("wallet: unsupported wallet file version")
	ErrUnsupportedRecordType = errors.New("wallet: unsupported entry record type")

	// ErrAlreadyEncrypted and ErrNotEncrypted guard the lock-state-machine
	// transitions of spec.md §4.7 beyond the typed kinds above.
	ErrAlreadyEncrypted = errors.New("wallet: wallet is already encrypted")
	ErrNotEncrypted     = errors.New("wallet: wallet is not encrypted")
	ErrAlreadyUnlocked  = errors.New("wallet: wallet is already unlocked")

	errShutdown = errors.New("wallet: wallet is closing")
)
