// Package lstore implements store.IStore on top of a single db.KVDB in the
// same process.
//
// The store owns the write index clock of its database: every write takes the
// next index from an atomic counter, which starts at db.WriteIdx() and is
// moved to the restored clock after Restore. TTLs given to SetE and
// SetEIfUnset therefore count writes made through this store.
//
// Operations the database does not support (see db.Feature) fail with
// store.RetCUnsupportedOperation. The two negative outcomes of the engine are
// reported as codes as well: SetEIfUnset on a live key yields
// store.RetCKeyExists and Delete of a missing key yields store.RetCKeyNotFound.
//
// Example:
//
//	s := lstore.NewLocalStore(func() db.KVDB { return mmkv.NewMMKV(nil) })
//	defer s.Close()
//
//	// gone after 300 further writes
//	_ = s.SetE("session:123", data, 0, 300)
//
//	if err := s.SetEIfUnset("leader", id, 0, 10); store.Code(err) == store.RetCKeyExists {
//		// someone else holds it
//	}
//
//	// persist
//	f, _ := os.Create("mmkv.db")
//	_ = s.Snapshot(f)
//
// All methods are safe for concurrent use as long as the database is.
package lstore
