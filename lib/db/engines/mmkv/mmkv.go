package mmkv

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv/internal"
	"github.com/ValentinKolb/mmkv/lib/db/util"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

var log = logger.GetLogger("mmkv")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for database behavior and structure
const (
	defaultGCInterval  = 100 * time.Millisecond // Default interval between GC runs
	defaultRehashSteps = 64                     // Default buckets migrated per shard and GC run
)

// BucketKind selects the bucket implementation of the shard indexes.
type BucketKind = internal.BucketKind

const (
	BucketTree = internal.BucketTree
	BucketList = internal.BucketList
)

// ParseBucketKind parses "tree" or "list".
func ParseBucketKind(s string) (BucketKind, error) {
	return internal.ParseBucketKind(s)
}

// --------------------------------------------------------------------------
// Core MMKV database structure
// --------------------------------------------------------------------------

// mmkvImpl implements db.KVDB on top of sharded incremental rehashing hash indexes
type mmkvImpl struct {
	opts      DBOptions
	seed      uint64            // Seed for shard selection
	shards    []*internal.Shard // Array of shards
	currIndex atomic.Uint64     // Current logical timestamp (for TTLInfo)
	metrics   *engineMetrics

	// garbage collection
	gcMu   sync.Mutex
	gcStop context.CancelFunc
	gcDone chan struct{}
}

// DBOptions configures the mmkvImpl behavior during initialization
type DBOptions struct {
	NumShards   int           // Number of shards (0 = runtime.NumCPU())
	GCInterval  time.Duration // Time between GC runs (0 = default)
	BucketKind  BucketKind    // Bucket implementation of the shard indexes ("" = tree)
	InitialSize int           // Initial bucket count per shard (0 = hashtable default)
	RehashSteps int           // Buckets migrated per shard and GC run (0 = default, <0 = disabled)
}

// DefaultOptions returns the default mmkvImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:   runtime.NumCPU(),
		GCInterval:  defaultGCInterval,
		BucketKind:  BucketTree,
		InitialSize: hashtable.DefaultInitialSize,
		RehashSteps: defaultRehashSteps,
	}
}

func (o DBOptions) withDefaults() DBOptions {
	def := DefaultOptions()
	if o.NumShards <= 0 {
		o.NumShards = def.NumShards
	}
	if o.GCInterval <= 0 {
		o.GCInterval = def.GCInterval
	}
	if o.BucketKind == "" {
		o.BucketKind = def.BucketKind
	}
	if o.InitialSize <= 0 {
		o.InitialSize = def.InitialSize
	}
	if o.RehashSteps == 0 {
		o.RehashSteps = def.RehashSteps
	}
	return o
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMMKV creates a new database instance with the specified options (optional)
// and starts its garbage collector.
//
// Thread-safety: This function is not thread-safe and should only be called once
// during initialization.
func NewMMKV(opts *DBOptions) db.KVDB {
	return newMMKV(opts)
}

func newMMKV(opts *DBOptions) *mmkvImpl {
	if opts == nil {
		opts = DefaultOptions()
	}

	m := &mmkvImpl{
		opts: opts.withDefaults(),
		seed: util.GenerateSeed(),
	}
	m.metrics = newEngineMetrics(m)
	m.shards = m.newShards()

	log.Debugf("created engine with %d shards (%s buckets, gc every %s)",
		m.opts.NumShards, m.opts.BucketKind, m.opts.GCInterval)

	m.startGC()
	return m
}

// newShards creates empty shards. Every shard index gets its own hash seed so
// the bucket index is independent of the shard selection.
func (m *mmkvImpl) newShards() []*internal.Shard {
	shards := make([]*internal.Shard, m.opts.NumShards)
	for i := range shards {
		shards[i] = internal.NewShard(m.opts.BucketKind,
			util.NewStringHasher(util.GenerateSeed()),
			hashtable.WithInitialSize(m.opts.InitialSize),
			hashtable.WithRehashHook(m.metrics.rehashHook(i)),
		)
	}
	return shards
}

// shardFor returns the shard responsible for key
func (m *mmkvImpl) shardFor(key string) *internal.Shard {
	return internal.GetShard(util.HashString(key, m.seed), m.shards)
}

// eachShard calls fn for every shard while holding its lock
func (m *mmkvImpl) eachShard(fn func(i int, s *internal.Shard)) {
	for i, s := range m.shards {
		s.Lock()
		fn(i, s)
		s.Unlock()
	}
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
// If the key already exists, the old value is overwritten.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Set(key string, value []byte, writeIndex uint64) {
	m.SetE(key, value, writeIndex, 0, 0)
}

// SetE stores a value for a key with an expiration time.
// If the key already exists, the old value, old expireIn and old deleteIn are overwritten.
//
//   - expireIn: when the value should expire (relative to writeIndex) (0 = no expiration, the key can still be found with the Has() method)
//   - deleteIn: when the key and value should be deleted (relative to writeIndex) (0 = no deletion)
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) {
	entry := internal.NewEntry(key, value, writeIndex, expireIn, deleteIn)
	m.compute(key, writeIndex, func(s *internal.Shard, old *internal.Entry, _ bool) bool {
		s.Store(old, entry)
		return true
	})
}

// SetEIfUnset inserts an entry only if the key does not exist or is logically
// deleted. It reports whether the entry was stored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) bool {
	entry := internal.NewEntry(key, value, writeIndex, expireIn, deleteIn)
	return m.compute(key, writeIndex, func(s *internal.Shard, old *internal.Entry, loaded bool) bool {
		if loaded {
			return false
		}
		s.Store(old, entry)
		return true
	})
}

// Expire marks the entry with the specified key as expired. This change is immediate.
// The key is still findable with the Has() method.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Expire(key string, writeIndex uint64) {
	m.compute(key, writeIndex, func(s *internal.Shard, old *internal.Entry, loaded bool) bool {
		if !loaded {
			return false
		}
		old.Value = nil
		old.ExpireAt = writeIndex
		s.Schedule(old)
		return true
	})
}

// Delete removes an entry with the specified key and reports whether a live
// (not logically deleted) entry existed. The entry is removed immediately.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Delete(key string, writeIndex uint64) bool {
	m.metrics.deletes.Inc()
	return m.compute(key, writeIndex, func(s *internal.Shard, old *internal.Entry, loaded bool) bool {
		if old != nil {
			s.Remove(key)
		}
		return loaded
	})
}

// compute is the shared implementation of all write operations. It advances
// the write index, locks the shard of key and calls fn with the stored entry
// (nil if absent). loaded is false if the entry is absent or logically
// deleted; an expired entry is passed with its value cleared so fn only ever
// sees a consistent view. Writes with an index lower than the stored one are
// stale and ignored without calling fn.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) compute(key string, writeIndex uint64, fn func(s *internal.Shard, old *internal.Entry, loaded bool) bool) bool {
	m.SetWriteIdx(writeIndex)
	m.metrics.writes.Inc()

	shard := m.shardFor(key)
	shard.Lock()
	defer shard.Unlock()

	old := shard.Data.Find(key)
	loaded := old != nil
	if old != nil {
		if writeIndex < old.Index {
			m.metrics.staleWrites.Inc()
			return false
		}

		isExpired, isDeleted := old.TTLInfo(writeIndex)
		loaded = !isDeleted
		if isExpired && old.Value != nil {
			old.Value = nil
		}
	}

	return fn(shard, old, loaded)
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The boolean indicates whether a (not expired) value for the key was found.
// The returned value is a copy of the stored data and therefore safe to use and modify.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Get(key string) ([]byte, bool) {
	m.metrics.reads.Inc()

	shard := m.shardFor(key)
	shard.Lock()
	defer shard.Unlock()

	e := shard.Data.Find(key)
	if e == nil {
		return nil, false
	}
	// stored values are never nil, a nil value was expired (Expire at index 0
	// leaves no ExpireAt behind)
	if isExpired, _ := e.TTLInfo(m.currIndex.Load()); isExpired || e.Value == nil {
		return nil, false
	}

	m.metrics.hits.Inc()
	data := make([]byte, len(e.Value))
	copy(data, e.Value)
	return data, true
}

// Has checks if a key exists in the database.
// This method does not check if the value for the key is expired. Use Get() for that.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Has(key string) bool {
	m.metrics.reads.Inc()

	shard := m.shardFor(key)
	shard.Lock()
	defer shard.Unlock()

	e := shard.Data.Find(key)
	if e == nil {
		return false
	}
	_, isDeleted := e.TTLInfo(m.currIndex.Load())
	return !isDeleted
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts one garbage collection goroutine per shard.
// If the GC is already running, this function does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) startGC() {
	m.gcMu.Lock()
	defer m.gcMu.Unlock()
	if m.gcStop != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.gcStop, m.gcDone = cancel, done

	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(len(m.shards))
		for i, shard := range m.shards {
			go func() {
				defer wg.Done()
				m.garbageCollector(ctx, i, shard)
			}()
		}
		wg.Wait()
	}()
}

// stopGC stops the garbage collector and waits until all goroutines are done.
// If the GC is not running, this function does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) stopGC() {
	m.gcMu.Lock()
	defer m.gcMu.Unlock()
	if m.gcStop == nil {
		return
	}
	m.gcStop()
	<-m.gcDone
	m.gcStop, m.gcDone = nil, nil
}

// garbageCollector is the collection loop of one shard
func (m *mmkvImpl) garbageCollector(ctx context.Context, i int, shard *internal.Shard) {
	ticker := time.NewTicker(m.opts.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.collectShard(i, shard)
		}
	}
}

// collectShard runs one GC cycle on a shard: due entries are expired or
// deleted and a pending rehash is advanced so quiet shards still finish
// migrating.
func (m *mmkvImpl) collectShard(i int, shard *internal.Shard) {
	/*
		The write index is loaded once per cycle so a concurrently advancing
		clock cannot keep the cycle busy.
	*/
	writeIndex := m.currIndex.Load()

	shard.Lock()
	expired, deleted := shard.Collect(writeIndex, m.opts.RehashSteps)
	shard.Unlock()

	m.metrics.gcExpired.Add(expired)
	m.metrics.gcDeleted.Add(deleted)
	if expired > 0 || deleted > 0 {
		log.Debugf("shard %d: gc at index %d expired %d and deleted %d entries", i, writeIndex, expired, deleted)
	}
}

// GarbageCollect runs one GC cycle on every shard immediately.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) GarbageCollect() {
	for i, shard := range m.shards {
		m.collectShard(i, shard)
	}
}

// --------------------------------------------------------------------------
// Index and Timestamp Management
// --------------------------------------------------------------------------

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// It uses atomic operations to ensure that the index only increases.
func (m *mmkvImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := m.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if m.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (m *mmkvImpl) WriteIdx() uint64 {
	return m.currIndex.Load()
}

// Close stops the garbage collector
func (m *mmkvImpl) Close() error {
	m.stopGC()
	return nil
}

// Verify checks the invariants of every shard.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) Verify() error {
	var err error
	m.eachShard(func(i int, s *internal.Shard) {
		if err != nil {
			return
		}
		if e := s.Verify(); e != nil {
			err = fmt.Errorf("shard %d: %w", i, e)
		}
	})
	return err
}
