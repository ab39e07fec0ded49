package hashtable

import "hash/maphash"

// StringHasher returns a string hash function with a random seed.
func StringHasher() func(string) uint64 {
	seed := maphash.MakeSeed()
	return func(s string) uint64 {
		return maphash.String(seed, s)
	}
}

// BytesHasher is StringHasher for byte slices.
func BytesHasher() func([]byte) uint64 {
	seed := maphash.MakeSeed()
	return func(b []byte) uint64 {
		return maphash.Bytes(seed, b)
	}
}

// Integer is the set of key types IntHasher accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// IntHasher returns a hash function for integer keys. The splitmix64
// finalizer spreads sequential keys over the low bits the bucket mask uses.
func IntHasher[K Integer]() func(K) uint64 {
	return func(k K) uint64 {
		z := uint64(k) + 0x9e3779b97f4a7c15
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		return z ^ (z >> 31)
	}
}
