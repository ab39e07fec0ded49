// Package db provides a standardized interface for key-value database implementations.
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete),
//     time-based operations (SetE, Expire), conditional writes (SetEIfUnset),
//     metadata retrieval (GetInfo) and persistence (Save, Load).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Database Information: DatabaseInfo reports size estimates, the implementation
//     type and implementation-specific metadata.
//
// Note on Time-Based Operations:
//   - All write operations take a write index that serves as a logical timestamp. It
//     records when an entry was written, is the base for expiration and deletion
//     offsets and advances the database's logical clock.
//   - Read operations always use the most recent write index.
//   - SetWriteIdx advances the clock without a write. The write index only ever
//     increases; lower values are ignored.
//   - A write whose index is lower than the index stored with the entry is stale and
//     ignored.
//
// Note on Garbage Collection:
//   - Expired and deleted entries are removed in the background. Get() never returns a
//     logically expired value and Has() never reports a logically deleted key, even if
//     the entry is still physically present.
//
// Related Packages:
//
// The engines/mmkv package provides the implementation backed by sharded incremental
// rehashing hash indexes (lib/index/hashtable). The util package provides the
// expiration queue and statistics helpers, the testing package a conformance suite
// and benchmarks for any KVDB.
package db
