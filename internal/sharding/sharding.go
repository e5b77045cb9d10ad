// Package sharding implements the deterministic partitioning used by the
// settlement engine to assign accounts to shard workers.
package sharding

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

// keySpaceBits is the width of the shard key space. A full SHA-256 hash is
// hashed down to a fixed-width hex string of this many bits so ShardKey and
// ShardRange agree on the same totally ordered space.
const keySpaceBits = 64

var keySpaceMax = new(big.Int).Lsh(big.NewInt(1), keySpaceBits)

// ShardKey deterministically maps an account id into the shard key space,
// rendered as a fixed-width (16 hex chars = 64 bits), zero-padded hex
// string so lexicographic string comparison agrees with numeric order --
// this is what lets the store's range scan (betweenIndex) implement
// ShardRange with a plain string comparison (>= start AND < end).
func ShardKey(accountId string) string {
	sum := sha256.Sum256([]byte(accountId))
	n := new(big.Int).SetBytes(sum[:])
	// Reduce into [0, 2^64-1): "ffffffffffffffff" is the exclusive end of
	// the last shard, so a key with that value would fall in no shard.
	n.Mod(n, new(big.Int).Sub(keySpaceMax, big.NewInt(1)))
	return fmt.Sprintf("%016x", n)
}

// ShardRange partitions the key space into n contiguous half-open
// intervals [start, end) and returns the i-th one (0-indexed). The last
// shard's end is clamped to the maximum possible key so no key is ever
// dropped off the end of the space due to integer division.
func ShardRange(i, n int) (start, end string) {
	if n <= 0 {
		panic("sharding: shard count must be positive")
	}
	if i < 0 || i >= n {
		panic("sharding: shard index out of range")
	}

	width := new(big.Int).Div(keySpaceMax, big.NewInt(int64(n)))
	startN := new(big.Int).Mul(width, big.NewInt(int64(i)))

	var endN *big.Int
	if i == n-1 {
		endN = keySpaceMax
	} else {
		endN = new(big.Int).Mul(width, big.NewInt(int64(i+1)))
	}

	return fmt.Sprintf("%016x", startN), hexOrMax(endN)
}

// hexOrMax renders n as a zero-padded 16-hex-char string, capping at
// "ffffffffffffffff" when n has reached the key space ceiling (which does
// not itself fit in 16 hex digits).
func hexOrMax(n *big.Int) string {
	if n.Cmp(keySpaceMax) >= 0 {
		return "ffffffffffffffff"
	}
	return fmt.Sprintf("%016x", n)
}

// InRange reports whether key falls within the half-open interval
// [start, end), using byte-wise comparison of the fixed-width hex strings
// ShardKey and ShardRange both produce.
func InRange(key, start, end string) bool {
	return key >= start && key < end
}

// IndexFor returns the shard index i in [0, n) such that
// ShardKey(accountId) falls in ShardRange(i, n). Used by tests and by the
// deposit ingestor's reasoning about which shard will eventually settle a
// freshly created transaction; the ingestor itself never needs to call
// this since it only ever stamps the key, not the index.
func IndexFor(accountId string, n int) int {
	key := ShardKey(accountId)
	for i := 0; i < n; i++ {
		start, end := ShardRange(i, n)
		if InRange(key, start, end) {
			return i
		}
	}
	// Unreachable given ShardRange's construction: the ranges partition the
	// full key space with no gaps, and ShardKey always returns a value in it.
	panic(fmt.Sprintf("sharding: no shard found for key %s in %d shards", key, n))
}
