// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - RunKVDBTests: a conformance suite for the KVDB contract (stale writes,
//     logical expiration and deletion, conditional writes, snapshots, index growth
//     and concurrent use). Tests of unsupported features are skipped.
//   - RunKVDBBenchmarks: parallel throughput benchmarks of the common operations,
//     snapshot round trips and bulk inserts into an empty database.
//
// Example usage:
//
//	factory := func() db.KVDB {
//		return NewMyDatabase()
//	}
//
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
