package wallet

import (
	"time"

	"github.com/rivine-labs/walletstore/indexer"
	"github.com/rivine-labs/walletstore/persist"
)

// defaultPoolTarget is the pool target used when Config.PoolTarget is zero,
// the "minimum number of pre-computed but unused addresses" of the
// GLOSSARY's "Pool target" entry.
const defaultPoolTarget = 20

// minKeyLifetime is the floor spec.md §5 "Cancellation & timeouts" imposes
// on defaultKeyLifetime: "clamped >= 2".
const minKeyLifetime = 2 * time.Second

// Config carries the ambient, non-domain configuration a Wallet needs: where
// its files live, which chain it belongs to, and the collaborators it is
// injected with (spec.md §9 "Global indexer handle... Replace with an
// injected trait/interface on the wallet constructor").
type Config struct {
	// Path is the primary wallet file's path; the backup and sentinel files
	// are derived from it (spec.md §6 "Sentinel files").
	Path string

	// ChainMagic identifies which blockchain this wallet belongs to
	// (spec.md §3 "chain magic"). Open rejects a file packed for a
	// different one.
	ChainMagic [4]byte

	// PoolTarget is the minimum lookahead of unused addresses maintained
	// beyond HighestUsedChainIndex. Zero means defaultPoolTarget.
	PoolTarget int

	// DefaultKeyLifetime is how long an unlock persists before the
	// heartbeat (CheckLockTimeout) re-locks the wallet. Zero means "no
	// automatic timeout"; otherwise it is clamped to >= minKeyLifetime.
	DefaultKeyLifetime time.Duration

	// Indexer is the external blockchain-indexer adapter (spec.md §4.8);
	// nil is valid for a wallet with no indexer wired up (watching-only
	// or offline use), in which case registration calls are skipped.
	Indexer *indexer.Adapter

	// Log receives the wallet's startup/shutdown and per-operation
	// narration; nil disables logging entirely.
	Log *persist.Logger

	// Now returns the current time; overridable so tests can drive the
	// lock-timeout heartbeat deterministically.
	Now func() time.Time
}

func (c Config) poolTarget() int {
	if c.PoolTarget <= 0 {
		return defaultPoolTarget
	}
	return c.PoolTarget
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) keyLifetime() time.Duration {
	if c.DefaultKeyLifetime <= 0 {
		return 0
	}
	if c.DefaultKeyLifetime < minKeyLifetime {
		return minKeyLifetime
	}
	return c.DefaultKeyLifetime
}
