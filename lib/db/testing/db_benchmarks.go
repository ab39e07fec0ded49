package testing

import (
	"bytes"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/mmkv/lib/db"
)

const benchKeys = 100_000

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		for _, bm := range parallelBenchmarks {
			b.Run(bm.name, func(b *testing.B) {
				runParallel(b, factory(), bm)
			})
		}

		b.Run("SaveLoad", func(b *testing.B) {
			benchmarkSaveLoad(b, factory)
		})

		b.Run("Growth", func(b *testing.B) {
			benchmarkGrowth(b, factory)
		})
	})
}

// parallelBenchmark describes a benchmark of one operation. prefill is run once
// before the timer starts, op is run from parallel goroutines with a per
// goroutine random source and a global operation counter.
type parallelBenchmark struct {
	name     string
	features []db.Feature
	prefill  func(database db.KVDB)
	op       func(database db.KVDB, rng *rand.Rand, n uint64)
}

var (
	smallValue = []byte("benchmark-value")
	largeValue = bytes.Repeat([]byte{0xAB}, 64*1024)
)

func benchKey(i int) string {
	return fmt.Sprintf("bench-key-%d", i)
}

func prefillKeys(database db.KVDB) {
	for i := 0; i < benchKeys; i++ {
		database.Set(benchKey(i), smallValue, 0)
	}
}

func prefillExpiring(database db.KVDB) {
	for i := 0; i < benchKeys; i++ {
		database.SetE(benchKey(i), smallValue, 0, uint64(1+i%1000), uint64(2000+i%1000))
	}
}

var parallelBenchmarks = []parallelBenchmark{
	{
		name:     "Set",
		features: []db.Feature{db.FeatureSet},
		op: func(database db.KVDB, _ *rand.Rand, n uint64) {
			database.Set(benchKey(int(n)), smallValue, n)
		},
	},
	{
		name:     "SetExisting",
		features: []db.Feature{db.FeatureSet},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, n uint64) {
			database.Set(benchKey(rng.Intn(benchKeys)), smallValue, n)
		},
	},
	{
		name:     "SetLargeValue",
		features: []db.Feature{db.FeatureSet},
		op: func(database db.KVDB, rng *rand.Rand, n uint64) {
			database.Set(benchKey(rng.Intn(1000)), largeValue, n)
		},
	},
	{
		name:     "SetWithExpiry",
		features: []db.Feature{db.FeatureSetE},
		op: func(database db.KVDB, _ *rand.Rand, n uint64) {
			database.SetE(benchKey(int(n)), smallValue, n, 100, 200)
		},
	},
	{
		name:     "SetEIfUnset",
		features: []db.Feature{db.FeatureSetEIfUnset},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, n uint64) {
			database.SetEIfUnset(benchKey(rng.Intn(2*benchKeys)), smallValue, n, 0, 0)
		},
	},
	{
		name:     "Get",
		features: []db.Feature{db.FeatureSet, db.FeatureGet},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, _ uint64) {
			database.Get(benchKey(rng.Intn(benchKeys)))
		},
	},
	{
		name:     "GetWithExpiry",
		features: []db.Feature{db.FeatureSetE, db.FeatureGet},
		prefill:  prefillExpiring,
		op: func(database db.KVDB, rng *rand.Rand, _ uint64) {
			database.Get(benchKey(rng.Intn(benchKeys)))
		},
	},
	{
		name:     "Has",
		features: []db.Feature{db.FeatureSet, db.FeatureHas},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, _ uint64) {
			database.Has(benchKey(rng.Intn(benchKeys)))
		},
	},
	{
		name:     "Has(not)",
		features: []db.Feature{db.FeatureSet, db.FeatureHas},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, _ uint64) {
			database.Has(benchKey(benchKeys + rng.Intn(benchKeys)))
		},
	},
	{
		name:     "Delete",
		features: []db.Feature{db.FeatureSet, db.FeatureDelete},
		prefill:  prefillKeys,
		op: func(database db.KVDB, rng *rand.Rand, n uint64) {
			database.Delete(benchKey(rng.Intn(benchKeys)), n)
		},
	},
	{
		name:     "MixedUsage",
		features: []db.Feature{db.FeatureSet, db.FeatureGet, db.FeatureDelete},
		prefill:  prefillKeys,
		op:       mixedOp(false),
	},
	{
		name:     "MixedUsageWithExpiry",
		features: []db.Feature{db.FeatureSetE, db.FeatureGet, db.FeatureDelete},
		prefill:  prefillExpiring,
		op:       mixedOp(true),
	},
}

// mixedOp is 70% reads, 25% writes and 5% deletes on a shared key space
func mixedOp(withExpiry bool) func(database db.KVDB, rng *rand.Rand, n uint64) {
	return func(database db.KVDB, rng *rand.Rand, n uint64) {
		key := benchKey(rng.Intn(benchKeys))
		switch r := rng.Intn(100); {
		case r < 70:
			database.Get(key)
		case r < 95 && withExpiry:
			database.SetE(key, smallValue, n, 50, 100)
		case r < 95:
			database.Set(key, smallValue, n)
		default:
			database.Delete(key, n)
		}
	}
}

func runParallel(b *testing.B, database db.KVDB, bm parallelBenchmark) {
	b.Cleanup(func() {
		database.Close()
	})
	requireFeature(b, database, bm.features...)

	if bm.prefill != nil {
		bm.prefill(database)
	}

	var counter atomic.Uint64
	var seed atomic.Int64

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(seed.Add(1)))
		for pb.Next() {
			bm.op(database, rng, counter.Add(1))
		}
	})
}

func benchmarkSaveLoad(b *testing.B, factory DBFactory) {
	database := factory()
	b.Cleanup(func() {
		database.Close()
	})
	requireFeature(b, database, db.FeatureSet, db.FeatureSave, db.FeatureLoad)

	prefillKeys(database)

	var snapshot bytes.Buffer
	if err := database.Save(&snapshot); err != nil {
		b.Fatalf("Save failed: %v", err)
	}

	b.Run("Save", func(b *testing.B) {
		var buf bytes.Buffer
		b.SetBytes(int64(snapshot.Len()))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			buf.Reset()
			if err := database.Save(&buf); err != nil {
				b.Fatalf("Save failed: %v", err)
			}
		}
	})

	b.Run("Load", func(b *testing.B) {
		target := factory()
		defer target.Close()
		b.SetBytes(int64(snapshot.Len()))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := target.Load(bytes.NewReader(snapshot.Bytes())); err != nil {
				b.Fatalf("Load failed: %v", err)
			}
		}
	})
}

// benchmarkGrowth fills an empty database, measuring writes that trigger
// (incremental) index growth.
func benchmarkGrowth(b *testing.B, factory DBFactory) {
	keys := make([]string, benchKeys)
	for i := range keys {
		keys[i] = benchKey(i)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		database := factory()
		requireFeature(b, database, db.FeatureSet)
		b.StartTimer()

		for j, k := range keys {
			database.Set(k, smallValue, uint64(j))
		}

		b.StopTimer()
		database.Close()
		b.StartTimer()
	}
}
