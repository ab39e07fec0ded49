package inspect

import (
	"cmp"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
	"github.com/ValentinKolb/mmkv/lib/index/avl"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

// --------------------------------------------------------------------------
// Database report
// --------------------------------------------------------------------------

func printDBInfo(w io.Writer, info db.DatabaseInfo) {
	fmt.Fprintf(w, "Type:            %s\n", info.DbType)
	fmt.Fprintf(w, "Estimated Size:  %s\n", humanize.Bytes(uint64(info.SizeBytes)))

	meta, ok := info.Metadata.(*mmkv.Info)
	if !ok {
		return
	}

	fmt.Fprintf(w, "Write Index:     %s\n", humanize.Comma(int64(meta.CurrentWriteIndex)))
	fmt.Fprintf(w, "Entries:         %s\n", humanize.Comma(int64(meta.Entries)))
	fmt.Fprintf(w, "Bucket Kind:     %s\n", meta.BucketKind)
	fmt.Fprintf(w, "Shards:          %d (%d rehashing)\n", meta.ShardCount, meta.RehashingShards)
	fmt.Fprintf(w, "Shard Balance:   %.2f\n", meta.ShardDistribution.DistributionQuality)
	fmt.Fprintf(w, "Bucket Balance:  %.2f (max load %.0f)\n", meta.BucketDistribution.DistributionQuality, meta.BucketDistribution.Max)
	fmt.Fprintf(w, "GC Backlog:      %.1f%% expired, %.1f%% deleted\n", meta.ExpiredBacklog*100, meta.DeletedBacklog*100)
	fmt.Fprintf(w, "Value Sizes:     %s\n", meta.ValueSizes)

	fmt.Fprintf(w, "\n%-6s %12s %10s %8s %8s %10s\n", "SHARD", "ENTRIES", "BUCKETS", "LOAD", "MAX", "REHASH")
	for i, s := range meta.Shards {
		rehash := "-"
		if s.Rehashing {
			rehash = "@" + strconv.Itoa(s.Cursor)
		}
		fmt.Fprintf(w, "%-6d %12s %10s %8.2f %8d %10s\n",
			i, humanize.Comma(int64(s.Entries)), humanize.Comma(int64(s.Buckets)), s.LoadFactor, s.MaxLoad, rehash)
	}
}

// --------------------------------------------------------------------------
// Index growth trace
// --------------------------------------------------------------------------

// intIndex is the part of the hash index used by the growth trace
type intIndex interface {
	Insert(v int) (*int, bool)
	Stats() hashtable.Stats
	Verify() error
}

func newIntIndex(kind mmkv.BucketKind, opts ...hashtable.Option) intIndex {
	hash := hashtable.IntHasher[int]()
	key := func(v *int) int { return *v }
	if kind == mmkv.BucketList {
		return hashtable.NewList[int, int](hash, key, cmp.Compare[int], opts...)
	}
	return hashtable.NewTree[int, int](hash, key, cmp.Compare[int], opts...)
}

// traceIndex inserts n keys into a fresh index and writes a line for every
// rehash event followed by the final layout.
func traceIndex(w io.Writer, kind mmkv.BucketKind, n, initialSize int) error {
	inserted := 0
	hook := func(ev hashtable.RehashEvent) {
		fmt.Fprintf(w, "%-10s %10s -> %-10s at %s entries (insert #%s)\n",
			ev.Kind,
			humanize.Comma(int64(ev.From)),
			humanize.Comma(int64(ev.To)),
			humanize.Comma(int64(ev.Len)),
			humanize.Comma(int64(inserted)))
	}

	idx := newIntIndex(kind, hashtable.WithInitialSize(initialSize), hashtable.WithRehashHook(hook))
	for i := 0; i < n; i++ {
		inserted = i + 1
		idx.Insert(i)
	}

	st := idx.Stats()
	fmt.Fprintf(w, "\nEntries:         %s\n", humanize.Comma(int64(st.Len)))
	fmt.Fprintf(w, "Table 1:         %s buckets, %s entries\n", humanize.Comma(int64(st.Table1Size)), humanize.Comma(int64(st.Table1Used)))
	if st.Rehashing {
		fmt.Fprintf(w, "Table 2:         %s buckets, %s entries (cursor %d)\n",
			humanize.Comma(int64(st.Table2Size)), humanize.Comma(int64(st.Table2Used)), st.Cursor)
	}
	fmt.Fprintf(w, "Load Factor:     %.2f (max %d, %d empty buckets)\n", st.LoadFactor(), st.MaxLoad, st.EmptyBuckets)

	if err := idx.Verify(); err != nil {
		return fmt.Errorf("index verification failed: %w", err)
	}
	fmt.Fprintln(w, "Verify:          ok")
	return nil
}

// --------------------------------------------------------------------------
// Tree rendering
// --------------------------------------------------------------------------

// buildTree inserts the keys 0..n-1 into an AVL tree, in random order when
// shuffle is set.
func buildTree(n int, shuffle bool, seed uint64) *avl.Tree[int, int] {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	if shuffle {
		rng := rand.New(rand.NewPCG(seed, seed))
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	}

	t := avl.NewOrdered[int]()
	for _, k := range keys {
		t.Insert(k)
	}
	return t
}

func renderTree(t *avl.Tree[int, int]) string {
	return avl.RenderDot(t, func(v *int) string { return strconv.Itoa(*v) })
}
