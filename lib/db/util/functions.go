package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for internal hash distribution
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// the clock is good enough if the system has no entropy source
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString generates a hash value for a string with a seed
// This function uses the FNV-1a hash algorithm, which is fast and has good distribution
func HashString(s string, seed uint64) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64) ^ seed
	for i := 0; i < len(s); i++ {
		hash ^= uint64(s[i])
		hash *= prime64
	}
	return hash
}

// Mix64 is the murmur3 finalizer. It spreads the entropy of h over all bits,
// which matters for tables that index with the low bits only.
func Mix64(h uint64) uint64 {
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// NewStringHasher returns a seeded string hash suitable for a hash index.
// Using a different seed than the shard selection keeps the bucket index
// independent of the shard a key was routed to.
func NewStringHasher(seed uint64) func(string) uint64 {
	return func(s string) uint64 {
		return Mix64(HashString(s, seed))
	}
}

// ShardIndex maps a key hash to one of n shards.
func ShardIndex(hash uint64, n int) int {
	// shift right by 7 bits to use the higher-quality bits of FNV
	return int((hash >> 7) % uint64(n))
}
