package build

import (
	"fmt"
	"os"
	"path/filepath"
)

// Critical should be called if a sanity check has failed, indicating developer
// error. Critical is called with a slice of interfaces, which are required to
// be of type string, or an implementer of the Stringer or error interfaces.
//
// Critical panics in all configurations - it indicates something that is
// always a bug, wallet-format invariant violations included.
func Critical(v ...interface{}) {
	critical(v...)
}

// Severe should be called if a sanity check has failed that is not always a
// bug but is unexpected. It panics only in debug/testing builds, and
// otherwise is silent, matching the teacher's "only panic where it helps
// developers" policy.
func Severe(v ...interface{}) {
	if DEBUG {
		critical(v...)
	}
}

func critical(v ...interface{}) {
	msg := "Critical error: " + fmt.Sprintln(v...)
	msg += "Please submit a bug report: this state should be unreachable.\n"
	panic(msg)
}

// TempDir joins a package name and test name to produce a unique path to a
// scratch directory under the OS temp dir, removes anything a previous run
// left there, and creates the directory along with its parents. Used by
// package tests that need a scratch wallet directory.
func TempDir(pkg, test string) string {
	dir := filepath.Join(os.TempDir(), "walletstore-testing", pkg, filepath.Base(test))
	_ = os.RemoveAll(dir)
	_ = os.MkdirAll(dir, 0700)
	return dir
}
