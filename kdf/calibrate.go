package kdf

import (
	"time"
)

// scryptR and scryptP are the scrypt block-size/parallelism parameters;
// MemoryBytes is translated into scrypt's N via memoryBytes = 128*N*r.
const (
	scryptR = 8
	scryptP = 1
)

// nToMemoryBytes and memoryBytesToN convert between the wallet's
// (memoryBytes) parameter and scrypt's cost parameter N, which must be a
// power of two.
func memoryBytesToN(memoryBytes uint64) int {
	n := 1
	for uint64(128*n*scryptR) <= memoryBytes && n < (1<<20) {
		n <<= 1
	}
	n >>= 1
	if n < 2 {
		n = 2
	}
	return n
}

func nToMemoryBytes(n int) uint64 {
	return uint64(128 * n * scryptR)
}

// Calibrate implements spec.md §4.3 computeSystemSpecificKdfParams: pick
// the largest memoryBytes <= maxMemBytes whose single derivation
// (iterations=1) fits targetSeconds, then raise iterations to approach
// targetSeconds without exceeding it by more than ~10%. The result is
// monotone in both axes but not required to be reproducible across
// machines (spec.md §4.3), since it is calibrated against this machine's
// measured scrypt throughput.
func Calibrate(targetSeconds float64, maxMemBytes uint64) Params {
	salt := NewSalt()
	passphrase := []byte("walletstore-kdf-calibration-probe")

	n := memoryBytesToN(maxMemBytes)
	var oneIterDur time.Duration
	for n >= 2 {
		start := time.Now()
		_, _ = deriveOnce(passphrase, salt[:], n, 1)
		oneIterDur = time.Since(start)
		if oneIterDur.Seconds() <= targetSeconds || n == 2 {
			break
		}
		n >>= 1
	}

	iterations := uint32(1)
	if oneIterDur > 0 {
		target := time.Duration(targetSeconds * float64(time.Second))
		est := int64(target) / int64(oneIterDur)
		if est > 1 {
			iterations = uint32(est)
		}
		// Refine: don't overshoot target by more than ~10%.
		for iterations > 1 {
			projected := oneIterDur * time.Duration(iterations)
			if projected.Seconds() <= targetSeconds*1.10 {
				break
			}
			iterations--
		}
		if iterations == 0 {
			iterations = 1
		}
	}

	return Params{
		MemoryBytes: nToMemoryBytes(n),
		Iterations:  iterations,
		Salt:        salt,
	}
}
