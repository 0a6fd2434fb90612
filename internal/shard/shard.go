// Package shard provides shard key generation for low-cardinality DynamoDB index keys.
package shard

import (
	"fmt"
	"math/rand"
)

// Source yields shard numbers in [0, n).
// *rand.Rand satisfies it, which lets tests force deterministic shards.
type Source interface {
	Intn(n int) int
}

// globalSource draws from the package-level math/rand generator, which is safe
// for concurrent use.
type globalSource struct{}

func (globalSource) Intn(n int) int { return rand.Intn(n) }

// DefaultSource returns a Source backed by the global random generator.
func DefaultSource() Source {
	return globalSource{}
}

// Key appends the shard designation to a logical index value.
func Key(key string, shard int) string {
	return fmt.Sprintf("%s#shard%d", key, shard)
}

// Random picks a uniformly random shard of key.
// With numShards <= 1 every key goes to shard 0.
func Random(key string, numShards int, src Source) string {
	if numShards <= 1 {
		return Key(key, 0)
	}
	return Key(key, src.Intn(numShards))
}

// All returns every shard variant of key, in shard order.
// Reads against a sharded index must query all of them.
func All(key string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = Key(key, i)
	}
	return keys
}
