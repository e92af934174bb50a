package kdf

import (
	"golang.org/x/crypto/scrypt"
)

// KeySize is the width of the derived key fed to the wallet's AES layer.
const KeySize = 32

// deriveOnce runs iterations chained memory-hard scrypt passes, each taking
// the previous pass's output as its password.
func deriveOnce(passphrase, salt []byte, n, iterations int) ([]byte, error) {
	key := passphrase
	var err error
	for i := 0; i < iterations; i++ {
		key, err = scrypt.Key(key, salt, n, scryptR, scryptP, KeySize)
		if err != nil {
			return nil, err
		}
	}
	return key, nil
}

// DeriveKey derives the KeySize-byte encryption key from a passphrase
// under p. Iterations beyond the first feed the prior scrypt output back in
// as the password, under the same salt, which is what lets Calibrate raise "iterations"
// independently of "memoryBytes" while keeping both axes monotone in cost.
func DeriveKey(passphrase []byte, p Params) ([32]byte, error) {
	n := memoryBytesToN(p.MemoryBytes)
	iters := int(p.Iterations)
	if iters < 1 {
		iters = 1
	}
	raw, err := deriveOnce(passphrase, p.Salt[:], n, iters)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], raw)
	return out, nil
}
