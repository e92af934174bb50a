// Package secutil holds the small memory-safety and checksum primitives
// shared by the wallet codec and crypto packages: secure-wipe helpers and
// the double-SHA256 checksum-with-repair scheme of the wallet file format.
package secutil

// Wipe overwrites b with zeros in place. It is used on every exit path
// (including error returns) of any function that materialized a plaintext
// private key or a KDF-derived key, matching the teacher's
// crypto.SecureWipe call sites (e.g. modules/wallet/encrypt.go).
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Wipe32 is Wipe specialized for fixed 32-byte secrets, so callers holding
// [32]byte keys don't need to slice them first.
func Wipe32(b *[32]byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
