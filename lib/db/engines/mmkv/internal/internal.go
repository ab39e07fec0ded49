package internal

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ValentinKolb/mmkv/lib/db/util"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

// --------------------------------------------------------------------------
// Entry Type (key-value pair with metadata)
// --------------------------------------------------------------------------

// Entry stores a key-value pair with metadata
type Entry struct {
	Key      string // Lookup key, never changes while the entry is stored
	Value    []byte // Value data (nil once expired)
	ExpireAt uint64 // Value expiration timestamp (0 = never)
	DeleteAt uint64 // Deletion timestamp (0 = never)
	Index    uint64 // Write index when this entry was created/updated
}

// NewEntry creates an entry written at writeIndex. The value is copied, expireIn
// and deleteIn are relative to writeIndex (0 = never).
func NewEntry(key string, value []byte, writeIndex, expireIn, deleteIn uint64) Entry {
	e := Entry{
		Key:   key,
		Value: make([]byte, len(value)),
		Index: writeIndex,
	}
	copy(e.Value, value)
	if expireIn > 0 {
		e.ExpireAt = writeIndex + expireIn
	}
	if deleteIn > 0 {
		e.DeleteAt = writeIndex + deleteIn
	}
	return e
}

// TTLInfo returns whether the entry is expired and whether the entry is deleted (at the given write index)
func (e *Entry) TTLInfo(writeIdx uint64) (bool, bool) {
	var (
		isExpired = e.ExpireAt != 0 && writeIdx >= e.ExpireAt
		isDeleted = e.DeleteAt != 0 && writeIdx >= e.DeleteAt
	)

	// any deleted entry is also expired
	return isExpired || isDeleted, isDeleted
}

func entryKey(e *Entry) string { return e.Key }

// --------------------------------------------------------------------------
// Bucket Kinds
// --------------------------------------------------------------------------

// BucketKind selects the bucket implementation of the shard indexes.
type BucketKind string

const (
	BucketTree BucketKind = "tree" // AVL tree buckets, O(log n) worst case per bucket
	BucketList BucketKind = "list" // move-to-front lists, cheapest for well spread keys
)

// ParseBucketKind parses a bucket kind name (case-insensitive).
func ParseBucketKind(s string) (BucketKind, error) {
	switch k := BucketKind(strings.ToLower(s)); k {
	case BucketTree, BucketList:
		return k, nil
	default:
		return "", fmt.Errorf("invalid bucket kind %q: must be one of tree, list", s)
	}
}

// EntryIndex is the part of the hash index API used by a shard. It is
// satisfied by both *hashtable.TreeIndex and *hashtable.ListIndex.
type EntryIndex interface {
	Insert(v Entry) (*Entry, bool)
	Find(key string) *Entry
	Erase(key string) int
	Range(fn func(v *Entry) bool) bool
	Len() int
	Clear()
	Rehash(steps int) bool
	Rehashing() bool
	Buckets() int
	Stats() hashtable.Stats
	Verify() error
}

// NewEntryIndex creates an empty index of the given bucket kind.
func NewEntryIndex(kind BucketKind, hash func(string) uint64, opts ...hashtable.Option) EntryIndex {
	if kind == BucketList {
		return hashtable.NewList(hash, entryKey, strings.Compare, opts...)
	}
	return hashtable.NewTree(hash, entryKey, strings.Compare, opts...)
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database.
// All fields are guarded by the embedded mutex: even lookups modify the index
// (rehash steps, move-to-front), so there is no read lock.
type Shard struct {
	sync.Mutex
	Data        EntryIndex
	ExpireQueue *util.ExpiryQueue
	DeleteQueue *util.ExpiryQueue
}

// NewShard creates a new shard. hash is used by the data index and both queues.
func NewShard(kind BucketKind, hash func(string) uint64, opts ...hashtable.Option) *Shard {
	return &Shard{
		Data:        NewEntryIndex(kind, hash, opts...),
		ExpireQueue: util.NewExpiryQueue(hash),
		DeleteQueue: util.NewExpiryQueue(hash),
	}
}

// Store writes e, either over old (the stored entry with the same key) or as a
// new entry if old is nil, and schedules it for garbage collection.
// The caller must hold the shard lock.
func (s *Shard) Store(old *Entry, e Entry) {
	if old != nil {
		*old = e
	} else {
		s.Data.Insert(e)
	}
	s.Schedule(&e)
}

// Schedule brings the expire and delete queues in line with e.
// The caller must hold the shard lock.
func (s *Shard) Schedule(e *Entry) {
	if e.ExpireAt != 0 && e.Value != nil {
		s.ExpireQueue.AddItem(e.Key, e.ExpireAt)
	} else {
		s.ExpireQueue.RemoveByKey(e.Key)
	}
	if e.DeleteAt != 0 {
		s.DeleteQueue.AddItem(e.Key, e.DeleteAt)
	} else {
		s.DeleteQueue.RemoveByKey(e.Key)
	}
}

// Remove erases key from the index and both queues.
// The caller must hold the shard lock.
func (s *Shard) Remove(key string) bool {
	s.ExpireQueue.RemoveByKey(key)
	s.DeleteQueue.RemoveByKey(key)
	return s.Data.Erase(key) > 0
}

// Collect expires and deletes all entries due at writeIdx and runs up to
// rehashSteps steps of an ongoing rehash. It returns the number of expired and
// deleted entries. The caller must hold the shard lock.
func (s *Shard) Collect(writeIdx uint64, rehashSteps int) (expired, deleted int) {
	s.ExpireQueue.PopDue(writeIdx, func(item util.ExpiryItem) {
		e := s.Data.Find(item.Key)
		if e == nil {
			return
		}
		if isExpired, _ := e.TTLInfo(writeIdx); isExpired && e.Value != nil {
			e.Value = nil
			expired++
		}
	})

	s.DeleteQueue.PopDue(writeIdx, func(item util.ExpiryItem) {
		e := s.Data.Find(item.Key)
		if e == nil {
			return
		}
		if _, isDeleted := e.TTLInfo(writeIdx); isDeleted {
			s.ExpireQueue.RemoveByKey(item.Key)
			s.Data.Erase(item.Key)
			deleted++
		}
	})

	if rehashSteps > 0 {
		s.Data.Rehash(rehashSteps)
	}
	return expired, deleted
}

// Reset drops all entries. The caller must hold the shard lock.
func (s *Shard) Reset() {
	s.Data.Clear()
	s.ExpireQueue.Clear()
	s.DeleteQueue.Clear()
}

// Verify checks the index and queue invariants and that every scheduled key
// is stored with a matching timestamp. The caller must hold the shard lock.
func (s *Shard) Verify() error {
	if err := s.Data.Verify(); err != nil {
		return fmt.Errorf("data index: %w", err)
	}
	if err := s.ExpireQueue.Verify(); err != nil {
		return fmt.Errorf("expire queue: %w", err)
	}
	if err := s.DeleteQueue.Verify(); err != nil {
		return fmt.Errorf("delete queue: %w", err)
	}

	var err error
	s.Data.Range(func(e *Entry) bool {
		if item, ok := s.DeleteQueue.GetByKey(e.Key); ok != (e.DeleteAt != 0) || (ok && item.Priority != e.DeleteAt) {
			err = fmt.Errorf("delete queue out of sync for key %q", e.Key)
			return false
		}
		if item, ok := s.ExpireQueue.GetByKey(e.Key); ok && item.Priority != e.ExpireAt {
			err = fmt.Errorf("expire queue out of sync for key %q", e.Key)
			return false
		}
		return true
	})
	return err
}

// GetShard returns the shard for a key hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](hash uint64, shards []*T) *T {
	return shards[util.ShardIndex(hash, len(shards))]
}
