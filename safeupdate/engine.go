// Package safeupdate implements the crash-atomic update protocol of
// spec.md §4.5: a primary file plus a byte-identical backup, guarded by
// two sentinel files whose mere existence encodes which half of the
// protocol was interrupted. ConsistencyCheck is idempotent and is run
// both before every update and once on wallet load (spec.md §7
// "Propagation policy").
package safeupdate

import (
	"fmt"
	"io"
	"os"
)

// Engine drives the safe-update protocol for one wallet file pair.
type Engine struct {
	PrimaryPath string
	BackupPath  string
	MUFPath     string // "<path>_update_unsuccessful"
	BUFPath     string // "<path>_backup_unsuccessful"

	// Fault injects a pause point for tests exercising crash recovery
	// (spec.md §9 "interruptTest1/2/3 become an explicit enum parameter
	// in test builds"). Zero value (FaultNone) never fires.
	Fault FaultPoint
}

// FaultPoint names a point in the Apply sequence at which a test build
// can abort mid-update to exercise ConsistencyCheck's recovery paths.
type FaultPoint int

const (
	FaultNone FaultPoint = iota
	// FaultAfterPrimaryWrite aborts after step 4 (§4.5): MUF present, BUF
	// absent, P fully written, B stale.
	FaultAfterPrimaryWrite
	// FaultAfterBothSentinels aborts after step 5, with both sentinels
	// momentarily present.
	FaultAfterBothSentinels
	// FaultAfterMUFRemoved aborts after step 6: only BUF present, P good,
	// B about to be updated.
	FaultAfterMUFRemoved
)

type faultTriggered struct{ at FaultPoint }

func (f faultTriggered) Error() string { return fmt.Sprintf("safeupdate: fault injected at point %d", f.at) }

// NewEngine derives the backup and sentinel paths from primaryPath,
// matching the naming in spec.md §6 "Sentinel files".
func NewEngine(primaryPath string) *Engine {
	return &Engine{
		PrimaryPath: primaryPath,
		BackupPath:  primaryPath + "_backup",
		MUFPath:     primaryPath + "_update_unsuccessful",
		BUFPath:     primaryPath + "_backup_unsuccessful",
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ConsistencyCheck implements spec.md §4.5's filesystem-state invariants:
//
//	both sentinels absent  -> P and B already agree, nothing to do
//	MUF only               -> B is good, P may be mid-update: B -> P
//	BUF only                -> P is good, B is mid-update: P -> B
//	both present            -> P just finished, B not started: P -> B
//	neither, B missing      -> bootstrap B from P under a BUF fence
func (e *Engine) ConsistencyCheck() error {
	mufExists := exists(e.MUFPath)
	bufExists := exists(e.BUFPath)

	switch {
	case mufExists && bufExists:
		if err := copyFile(e.PrimaryPath, e.BackupPath); err != nil {
			return err
		}
		if err := os.Remove(e.MUFPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return removeIfExists(e.BUFPath)

	case mufExists:
		if err := copyFile(e.BackupPath, e.PrimaryPath); err != nil {
			return err
		}
		return removeIfExists(e.MUFPath)

	case bufExists:
		if err := copyFile(e.PrimaryPath, e.BackupPath); err != nil {
			return err
		}
		return removeIfExists(e.BUFPath)

	default:
		if !exists(e.BackupPath) {
			if err := touch(e.BUFPath); err != nil {
				return err
			}
			if err := copyFile(e.PrimaryPath, e.BackupPath); err != nil {
				return err
			}
			return removeIfExists(e.BUFPath)
		}
		return nil
	}
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
