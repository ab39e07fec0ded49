// Package mmkv implements an in-memory key-value database (KVDB) on top of
// incremental rehashing hash indexes. It provides a complete implementation of
// the db.KVDB interface with time-based operations, background garbage
// collection, binary snapshots and metrics.
//
// Key Components:
//
//   - mmkvImpl: The central database structure implementing db.KVDB. It manages
//     shards, runs the garbage collector and keeps the logical write index. Like
//     every KVDB the engine does not generate write indices itself, the caller
//     chooses them (logical timestamps, raft log indices, ...).
//
//   - Shard: A partition of the key space. Each shard owns a mutex, one hash
//     index (lib/index/hashtable) holding the entries and two expiry queues (for
//     expiration and deletion) ordered by due index. Keys are routed to shards
//     with a seeded FNV hash; each shard index hashes with its own seed so the
//     bucket index does not correlate with the shard.
//
//   - Entry: The stored record: key, value, expiration index, deletion index and
//     the write index of the last update.
//
// Internal Mechanisms:
//
//   - Incremental Rehashing: A shard index doubles its bucket count by
//     migrating one bucket per operation instead of stopping the world. The
//     garbage collector additionally drives a few migration steps per cycle
//     (DBOptions.RehashSteps) so a shard that stopped receiving writes still
//     finishes its rehash and releases the old table.
//
//   - Bucket Kinds: Shards use AVL tree buckets by default, bounding the cost of
//     a lookup even when many keys collide. Move-to-front list buckets
//     (BucketList) are cheaper for well spread keys.
//
//   - Stale Write Prevention: A write is only applied if its write index is
//     greater than or equal to the index stored with the entry.
//
//   - Time-based Operations: expireIn and deleteIn are relative to the write
//     index of the operation. Expired entries return false for Get() but true for
//     Has(), deleted entries are gone for both. Reads compare against the current
//     write index, so an entry is logically gone the moment the clock passes its
//     due index, whether or not the garbage collector already ran.
//
//   - Garbage Collection: One goroutine per shard wakes up every GCInterval,
//     pops all due items from the shard's expiry queues, clears expired values,
//     removes deleted entries and advances a pending rehash. Every write
//     reschedules its entry in the queues under the shard lock, so the queues
//     always mirror the stored timestamps.
//
//   - Persistence Format: A little endian binary format:
//     1. Magic number "MMKVDB\x00\x00"
//     2. Version number (currently 1)
//     3. Write index at save time
//     4. Number of entries
//     5. For each entry: key length, key, expiration index, deletion index,
//     write index, value length, value bytes
//     Save copies one shard at a time and does not block the database; the
//     snapshot is not a consistent cut across shards.
//
//   - Metrics: Each engine owns a VictoriaMetrics set (rehash events, gc
//     throughput, stale writes, entries, buckets) written by WriteMetrics.
//     Operation counters use striped xsync counters. GetInfo reports per shard
//     index statistics (load factor, rehash cursor, bucket loads).
package mmkv
