package lstore

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/store"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	db    db.KVDB
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// The write index continues from the database's current write index.
func NewLocalStore(factory store.DBFactory) store.IStore {
	s := &storeImpl{
		db: factory(),
	}
	s.index.Store(s.db.WriteIdx())
	return s
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// unsupported checks that the database supports feature
func (s *storeImpl) unsupported(feature db.Feature) error {
	if s.db.SupportsFeature(feature) {
		return nil
	}
	return store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s operation is not supported", feature))
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if err := s.unsupported(db.FeatureSet); err != nil {
		return err
	}
	s.db.Set(key, value, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) SetE(key string, value []byte, expireIn, deleteIn uint64) error {
	if err := s.unsupported(db.FeatureSetE); err != nil {
		return err
	}
	s.db.SetE(key, value, s.incAndGetIndex(), expireIn, deleteIn)
	return nil
}

func (s *storeImpl) SetEIfUnset(key string, value []byte, expireIn, deleteIn uint64) error {
	if err := s.unsupported(db.FeatureSetEIfUnset); err != nil {
		return err
	}
	if !s.db.SetEIfUnset(key, value, s.incAndGetIndex(), expireIn, deleteIn) {
		return store.NewError(store.RetCKeyExists, fmt.Sprintf("key %q already exists", key))
	}
	return nil
}

func (s *storeImpl) Expire(key string) error {
	if err := s.unsupported(db.FeatureExpire); err != nil {
		return err
	}
	s.db.Expire(key, s.incAndGetIndex())
	return nil
}

func (s *storeImpl) Delete(key string) error {
	if err := s.unsupported(db.FeatureDelete); err != nil {
		return err
	}
	if !s.db.Delete(key, s.incAndGetIndex()) {
		return store.NewError(store.RetCKeyNotFound, fmt.Sprintf("key %q not found", key))
	}
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if err := s.unsupported(db.FeatureGet); err != nil {
		return nil, false, err
	}
	val, ok := s.db.Get(key)
	return val, ok, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	if err := s.unsupported(db.FeatureHas); err != nil {
		return false, err
	}
	return s.db.Has(key), nil
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Snapshot(w io.Writer) error {
	if err := s.unsupported(db.FeatureSave); err != nil {
		return err
	}
	if err := s.db.Save(w); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("save snapshot: %v", err))
	}
	return nil
}

func (s *storeImpl) Restore(r io.Reader) error {
	if err := s.unsupported(db.FeatureLoad); err != nil {
		return err
	}
	if err := s.db.Load(r); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("load snapshot: %v", err))
	}
	s.index.Store(s.db.WriteIdx())
	log.Infof("restored snapshot, write index is now %d", s.index.Load())
	return nil
}

func (s *storeImpl) WriteMetrics(w io.Writer) error {
	mw, ok := s.db.(db.MetricsWriter)
	if !ok || !s.db.SupportsFeature(db.FeatureMetrics) {
		return store.NewError(store.RetCUnsupportedOperation, "Metrics are not supported")
	}
	mw.WriteMetrics(w)
	return nil
}

func (s *storeImpl) Close() error {
	return s.db.Close()
}
