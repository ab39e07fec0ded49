// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - functions: seed generation and the seeded string hashes used for shard
//     selection and for the per-shard hash index
//   - expiryqueue: a priority queue with key-based access that schedules
//     expiration and deletion, built on the AVL tree and the hash index
//   - statistics: distribution statistics and a SizeHistogram for tracking
//     value sizes
//
// None of the types in this package are safe for concurrent use unless noted
// otherwise; the engines call them under their shard locks.
package util
