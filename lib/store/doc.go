// Package store defines IStore, the client facing interface of mmkv, and its
// error type.
//
// An IStore hides the write index clock of the underlying db.KVDB: callers
// only pass keys, values and relative TTLs. Every method returns an error of
// type *Error carrying a RetCode, so callers branch on the outcome with
// Code(err), which also sees through wrapped errors:
//
//	switch store.Code(err) {
//	case store.RetCSuccess:
//	case store.RetCKeyNotFound:
//	default:
//		return err
//	}
//
// The only implementation is the local store in
// "github.com/ValentinKolb/mmkv/lib/store/lstore".
package store
