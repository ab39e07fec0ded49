package mmkv

import (
	"testing"
	"time"

	"github.com/ValentinKolb/mmkv/lib/db"
	dbtesting "github.com/ValentinKolb/mmkv/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MMKV", func() db.KVDB {
		return NewMMKV(nil)
	})

	dbtesting.RunKVDBTests(t, "MMKV(list)", func() db.KVDB {
		return NewMMKV(&DBOptions{BucketKind: BucketList})
	})

	// one small shard so every test crosses many rehashes
	dbtesting.RunKVDBTests(t, "MMKV(single-shard)", func() db.KVDB {
		return NewMMKV(&DBOptions{NumShards: 1, InitialSize: 1, GCInterval: 5 * time.Millisecond})
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MMKV", func() db.KVDB {
		return NewMMKV(nil)
	})

	dbtesting.RunKVDBBenchmarks(b, "MMKV(list)", func() db.KVDB {
		return NewMMKV(&DBOptions{BucketKind: BucketList})
	})
}
