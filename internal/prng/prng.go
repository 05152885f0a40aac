// Package prng implements the HDR (hash-deterministic-random) generator:
// a pure, stateless, counter-addressed source of uniform variates used
// to drive leaf simulation. Because every stream is addressed by its
// five integer inputs rather than by mutable generator state, resampling
// any single trial is O(1) and independent of how the simulation's work
// was partitioned across goroutines.
package prng

import (
	"encoding/binary"
	"math"

	"crypto/sha256"
)

// twoToThe53 is 2^53, the number of distinct values a float64 mantissa
// can hold; used to map the hash output into (0,1) with full precision.
const twoToThe53 = float64(1 << 53)

// Uniform returns a uniform variate in the open interval (0,1) that is a
// pure deterministic function of its five inputs. Two calls with
// identical inputs always return identical outputs; varying any single
// input produces an effectively independent stream.
func Uniform(counter, entityID, varID, seed3, seed4 uint64) float64 {
	var buf [40]byte
	binary.BigEndian.PutUint64(buf[0:8], counter)
	binary.BigEndian.PutUint64(buf[8:16], entityID)
	binary.BigEndian.PutUint64(buf[16:24], varID)
	binary.BigEndian.PutUint64(buf[24:32], seed3)
	binary.BigEndian.PutUint64(buf[32:40], seed4)

	sum := sha256.Sum256(buf[:])

	// Take the top 53 bits of the digest as the mantissa of a uniform
	// variate in [0, 1), then nudge away from the 0 endpoint so the
	// contract's open interval holds exactly.
	var mantissa uint64
	for i := 0; i < 7; i++ {
		mantissa = (mantissa << 8) | uint64(sum[i])
	}
	mantissa >>= 3 // keep the top 53 bits of the 56 we read
	mantissa &= (1 << 53) - 1

	u := float64(mantissa) / twoToThe53
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	return u
}
