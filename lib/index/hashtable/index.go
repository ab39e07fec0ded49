package hashtable

import (
	"iter"

	"github.com/ValentinKolb/mmkv/lib/index/avl"
	"github.com/ValentinKolb/mmkv/lib/index/bucket"
	"github.com/ValentinKolb/mmkv/lib/index/garray"
)

// Node is a bucket node holding one value.
type Node[T any] interface {
	comparable
	Payload() *T
}

// Kind is the method set a bucket type B must provide through its pointer
// type. The zero value of B must be an empty bucket.
type Kind[B, K, T any, N Node[T]] interface {
	*B
	Insert(o *avl.Ordering[K, T], v T) (N, bool)
	InsertMulti(o *avl.Ordering[K, T], v T) N
	Push(o *avl.Ordering[K, T], n N) (N, bool)
	PushMulti(o *avl.Ordering[K, T], n N)
	Find(o *avl.Ordering[K, T], key K) N
	Extract(o *avl.Ordering[K, T], key K) N
	Drain(fn func(n N))
	Range(fn func(v *T) bool) bool
	Empty() bool
	Count() int
	Verify(o *avl.Ordering[K, T]) error
}

// noRehash is the cursor value of the stable state.
const noRehash = -1

// table is one generation of buckets. The bucket count is a power of two.
type table[B any] struct {
	buckets garray.Array[B]
	used    int
	mask    uint64
}

func (t *table[B]) init(size int) {
	t.buckets.Reset()
	t.buckets.Grow(size)
	t.mask = uint64(size - 1)
	t.used = 0
}

func (t *table[B]) release() {
	t.buckets.Reset()
	t.mask = 0
	t.used = 0
}

func (t *table[B]) swap(other *table[B]) {
	t.buckets.Swap(&other.buckets)
	t.used, other.used = other.used, t.used
	t.mask, other.mask = other.mask, t.mask
}

func (t *table[B]) size() int {
	return t.buckets.Len()
}

func (t *table[B]) slot(h uint64) int {
	return int(h & t.mask)
}

// Index is a hash index over values of type T identified by keys of type K.
// N is the node type and B the bucket type; PB is always *B. Use NewTree or
// NewList unless a custom bucket kind is needed.
type Index[K, T any, N Node[T], B any, PB Kind[B, K, T, N]] struct {
	t1, t2  table[B]
	cursor  int
	hash    func(K) uint64
	order   avl.Ordering[K, T]
	initial int
	hook    func(RehashEvent)
}

// New creates an index with bucket kind B. hash maps a key to its hash, key
// extracts the key from a value and compare orders two keys (only equality
// matters for list buckets).
func New[K, T any, N Node[T], B any, PB Kind[B, K, T, N]](
	hash func(K) uint64, key func(*T) K, compare func(a, b K) int, opts ...Option,
) *Index[K, T, N, B, PB] {
	x := &Index[K, T, N, B, PB]{}
	x.setup(hash, key, compare, opts)
	return x
}

func (x *Index[K, T, N, B, PB]) setup(hash func(K) uint64, key func(*T) K, compare func(a, b K) int, opts []Option) {
	if hash == nil || key == nil || compare == nil {
		panic("hashtable: hash, key and compare functions are required")
	}
	o := buildOptions(opts)
	x.hash = hash
	x.order = avl.Ordering[K, T]{Key: key, Compare: compare}
	x.initial = o.initialSize
	x.hook = o.hook
	x.cursor = noRehash
	x.t1.init(x.initial)
}

// TreeIndex is an index with AVL tree buckets.
type TreeIndex[K, T any] struct {
	Index[K, T, *avl.Node[T], bucket.Tree[K, T], *bucket.Tree[K, T]]
}

// NewTree creates an index with AVL tree buckets.
func NewTree[K, T any](hash func(K) uint64, key func(*T) K, compare func(a, b K) int, opts ...Option) *TreeIndex[K, T] {
	x := &TreeIndex[K, T]{}
	x.setup(hash, key, compare, opts)
	return x
}

// ListIndex is an index with singly linked, move-to-front buckets.
type ListIndex[K, T any] struct {
	Index[K, T, *bucket.ListNode[T], bucket.List[K, T], *bucket.List[K, T]]
}

// NewList creates an index with list buckets.
func NewList[K, T any](hash func(K) uint64, key func(*T) K, compare func(a, b K) int, opts ...Option) *ListIndex[K, T] {
	x := &ListIndex[K, T]{}
	x.setup(hash, key, compare, opts)
	return x
}

// --------------------------------------------------------------------------
// Rehash State Machine
// --------------------------------------------------------------------------

func (x *Index[K, T, N, B, PB]) bucket(t *table[B], h uint64) PB {
	return PB(t.buckets.At(t.slot(h)))
}

func (x *Index[K, T, N, B, PB]) emit(kind RehashEventKind, from, to int) {
	if x.hook != nil {
		x.hook(RehashEvent{Kind: kind, From: from, To: to, Len: x.Len()})
	}
}

// maybeGrow starts a rehash into a table of twice the size once the load
// factor of the stable table reaches 1.
func (x *Index[K, T, N, B, PB]) maybeGrow() {
	if x.cursor != noRehash || x.t1.used < x.t1.size() {
		return
	}
	x.t2.init(2 * x.t1.size())
	x.cursor = 0
	x.emit(RehashStarted, x.t1.size(), x.t2.size())
}

// step migrates the bucket under the cursor into table2. When the last
// bucket is moved the tables are swapped and the index becomes stable.
// It reports whether a rehash was in progress.
func (x *Index[K, T, N, B, PB]) step() bool {
	if x.cursor == noRehash {
		return false
	}

	PB(x.t1.buckets.At(x.cursor)).Drain(func(n N) {
		h := x.hash(x.order.Key(n.Payload()))
		x.bucket(&x.t2, h).PushMulti(&x.order, n)
		x.t1.used--
		x.t2.used++
	})
	x.cursor++

	if x.cursor == x.t1.size() {
		from := x.t1.size()
		x.t1.swap(&x.t2)
		x.t2.release()
		x.cursor = noRehash
		x.emit(RehashFinished, from, x.t1.size())
	}
	return true
}

// migrated reports whether the table1 bucket of h has already been moved.
func (x *Index[K, T, N, B, PB]) migrated(h uint64) bool {
	return x.cursor != noRehash && x.t1.slot(h) < x.cursor
}

// target returns the table new entries with hash h belong to.
func (x *Index[K, T, N, B, PB]) target(h uint64) *table[B] {
	if x.migrated(h) {
		return &x.t2
	}
	return &x.t1
}

// findNode probes table1 (unless the bucket was migrated) and then table2.
func (x *Index[K, T, N, B, PB]) findNode(key K, h uint64) N {
	var zero N
	if !x.migrated(h) {
		if n := x.bucket(&x.t1, h).Find(&x.order, key); n != zero {
			return n
		}
	}
	if x.cursor != noRehash {
		return x.bucket(&x.t2, h).Find(&x.order, key)
	}
	return zero
}

// extractNode uses the same probe order as findNode.
func (x *Index[K, T, N, B, PB]) extractNode(key K, h uint64) N {
	var zero N
	if !x.migrated(h) {
		if n := x.bucket(&x.t1, h).Extract(&x.order, key); n != zero {
			x.t1.used--
			return n
		}
	}
	if x.cursor != noRehash {
		if n := x.bucket(&x.t2, h).Extract(&x.order, key); n != zero {
			x.t2.used--
			return n
		}
	}
	return zero
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Insert stores v unless an entry with the same key exists. It returns a
// pointer to the stored value (the existing one on a duplicate) and whether
// v was inserted. The existing value is never overwritten.
func (x *Index[K, T, N, B, PB]) Insert(v T) (*T, bool) {
	key := x.order.Key(&v)
	h := x.hash(key)
	x.maybeGrow()
	x.step()

	if x.cursor == noRehash {
		n, ok := x.bucket(&x.t1, h).Insert(&x.order, v)
		if ok {
			x.t1.used++
		}
		return n.Payload(), ok
	}

	var zero N
	if n := x.findNode(key, h); n != zero {
		return n.Payload(), false
	}
	t := x.target(h)
	n := x.bucket(t, h).InsertMulti(&x.order, v)
	t.used++
	return n.Payload(), true
}

// InsertMulti stores v without a duplicate check.
func (x *Index[K, T, N, B, PB]) InsertMulti(v T) *T {
	h := x.hash(x.order.Key(&v))
	x.maybeGrow()
	x.step()

	t := x.target(h)
	n := x.bucket(t, h).InsertMulti(&x.order, v)
	t.used++
	return n.Payload()
}

// Push links a node obtained from Extract (of this or another index with the
// same bucket kind) without reallocating it. On a duplicate key n stays
// detached and the existing value is returned with false.
func (x *Index[K, T, N, B, PB]) Push(n N) (*T, bool) {
	key := x.order.Key(n.Payload())
	h := x.hash(key)
	x.maybeGrow()
	x.step()

	var zero N
	if existing := x.findNode(key, h); existing != zero {
		return existing.Payload(), false
	}
	t := x.target(h)
	x.bucket(t, h).PushMulti(&x.order, n)
	t.used++
	return n.Payload(), true
}

// Erase removes one entry with the given key and returns the number of
// removed entries (0 or 1).
func (x *Index[K, T, N, B, PB]) Erase(key K) int {
	x.step()
	var zero N
	if x.extractNode(key, x.hash(key)) == zero {
		return 0
	}
	return 1
}

// Extract detaches the node holding key and hands it to the caller, or
// returns the zero node if the key is absent. The node can be passed to Push.
func (x *Index[K, T, N, B, PB]) Extract(key K) N {
	x.step()
	return x.extractNode(key, x.hash(key))
}

// Clear drops all entries and returns to the initial bucket count.
func (x *Index[K, T, N, B, PB]) Clear() {
	x.t1.init(x.initial)
	x.t2.release()
	x.cursor = noRehash
}

// Rehash performs up to steps migration steps without any other operation,
// letting an idle owner finish a pending rehash. It reports whether a rehash
// is still in progress afterwards.
func (x *Index[K, T, N, B, PB]) Rehash(steps int) bool {
	for i := 0; i < steps; i++ {
		if !x.step() {
			break
		}
	}
	return x.cursor != noRehash
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Find returns a pointer to the value stored under key, or nil.
func (x *Index[K, T, N, B, PB]) Find(key K) *T {
	x.step()
	var zero N
	if n := x.findNode(key, x.hash(key)); n != zero {
		return n.Payload()
	}
	return nil
}

// Contains reports whether key is present.
func (x *Index[K, T, N, B, PB]) Contains(key K) bool {
	return x.Find(key) != nil
}

// Len returns the number of stored entries across both tables. O(1).
func (x *Index[K, T, N, B, PB]) Len() int {
	return x.t1.used + x.t2.used
}

// Rehashing reports whether a rehash is in progress.
func (x *Index[K, T, N, B, PB]) Rehashing() bool {
	return x.cursor != noRehash
}

// Buckets returns the bucket count of the live table (table1).
func (x *Index[K, T, N, B, PB]) Buckets() int {
	return x.t1.size()
}

// Range calls fn for every value until fn returns false: table1 then table2,
// buckets in ascending order. The order is not stable across operations
// since every operation may migrate a bucket. fn must not modify the index.
func (x *Index[K, T, N, B, PB]) Range(fn func(v *T) bool) bool {
	for _, t := range []*table[B]{&x.t1, &x.t2} {
		for _, b := range t.buckets.All() {
			if !PB(b).Range(fn) {
				return false
			}
		}
	}
	return true
}

// All iterates over the stored values like Range.
func (x *Index[K, T, N, B, PB]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		x.Range(yield)
	}
}
