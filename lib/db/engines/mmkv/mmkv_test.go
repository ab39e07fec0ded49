package mmkv

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mmkv/lib/db"
)

// newTestDB creates an engine whose background gc never fires, tests drive
// collection with GarbageCollect.
func newTestDB(t *testing.T, opts DBOptions) *mmkvImpl {
	t.Helper()
	opts.GCInterval = time.Hour
	m := newMMKV(&opts)
	t.Cleanup(func() { m.Close() })
	return m
}

func entries(m *mmkvImpl) int {
	return m.GetInfo().Metadata.(*Info).Entries
}

func TestGarbageCollect(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 4})

	for i := 0; i < 100; i++ {
		m.SetE(fmt.Sprintf("key-%d", i), []byte("value"), 0, 10, uint64(20+i%2*100))
	}
	m.Set("forever", []byte("value"), 0)

	m.SetWriteIdx(15)
	m.GarbageCollect()
	if n := entries(m); n != 101 {
		t.Fatalf("expire must not remove entries, got %d", n)
	}
	if got := m.metrics.gcExpired.Get(); got != 100 {
		t.Errorf("expected 100 expired entries, got %d", got)
	}

	m.SetWriteIdx(25)
	m.GarbageCollect()
	if n := entries(m); n != 51 {
		t.Errorf("expected 51 entries after the first deletion wave, got %d", n)
	}

	m.SetWriteIdx(200)
	m.GarbageCollect()
	if n := entries(m); n != 1 {
		t.Errorf("expected only the key without ttl to remain, got %d", n)
	}
	if got := m.metrics.gcDeleted.Get(); got != 100 {
		t.Errorf("expected 100 deleted entries, got %d", got)
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestGarbageCollectRescheduled(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 1})

	m.SetE("key", []byte("a"), 0, 0, 10)
	// overwritten without ttl before the deletion was due
	m.Set("key", []byte("b"), 5)
	m.SetWriteIdx(50)
	m.GarbageCollect()

	if v, ok := m.Get("key"); !ok || string(v) != "b" {
		t.Errorf("rescheduled entry was collected: %q, %v", v, ok)
	}

	// a longer ttl moves the entry back in the queue
	m.SetE("key2", []byte("a"), 50, 0, 10)
	m.SetE("key2", []byte("b"), 55, 0, 100)
	m.SetWriteIdx(70)
	m.GarbageCollect()
	if !m.Has("key2") {
		t.Errorf("entry with extended ttl was deleted")
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestBackgroundGC(t *testing.T) {
	m := newMMKV(&DBOptions{NumShards: 2, GCInterval: time.Millisecond})
	defer m.Close()

	for i := 0; i < 50; i++ {
		m.SetE(fmt.Sprintf("key-%d", i), []byte("value"), 0, 0, 1)
	}
	m.SetWriteIdx(1)

	deadline := time.Now().Add(5 * time.Second)
	for entries(m) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("background gc did not remove deleted entries, %d left", entries(m))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestActiveRehash(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 1, InitialSize: 4, RehashSteps: 1})
	shard := m.shards[0]

	// insert until a rehash is pending
	i := 0
	for ; !shard.Data.Rehashing(); i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("value"), 0)
	}

	// every gc run migrates one bucket without any write
	runs := 0
	for shard.Data.Rehashing() {
		m.GarbageCollect()
		runs++
		if runs > 1024 {
			t.Fatal("rehash did not finish")
		}
	}
	if runs < 2 {
		t.Errorf("expected the rehash to take several gc runs, took %d", runs)
	}

	if started, finished := m.metrics.rehashStarted.Get(), m.metrics.rehashFinished.Get(); started != finished || started == 0 {
		t.Errorf("rehash counters out of balance: started=%d finished=%d", started, finished)
	}
	for j := 0; j < i; j++ {
		if !m.Has(fmt.Sprintf("key-%d", j)) {
			t.Fatalf("key-%d lost during rehash", j)
		}
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

func TestNoActiveRehash(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 1, RehashSteps: -1})
	shard := m.shards[0]

	for i := 0; !shard.Data.Rehashing(); i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("value"), 0)
	}
	m.GarbageCollect()
	if !shard.Data.Rehashing() {
		t.Errorf("gc must not migrate buckets with active rehashing disabled")
	}
}

func TestStaleWriteMetric(t *testing.T) {
	m := newTestDB(t, DBOptions{})

	m.Set("key", []byte("new"), 10)
	m.Set("key", []byte("old"), 9)
	if ok := m.SetEIfUnset("other", []byte("x"), 1, 0, 0); !ok {
		t.Errorf("SetEIfUnset of a new key must succeed regardless of the clock")
	}
	if got := m.metrics.staleWrites.Get(); got != 1 {
		t.Errorf("expected 1 stale write, got %d", got)
	}
}

func TestWriteMetrics(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 2})
	var _ db.MetricsWriter = m

	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("value"), uint64(i))
	}
	m.Get("key-1")
	m.Get("missing")
	m.Delete("key-2", 100)

	var buf bytes.Buffer
	m.WriteMetrics(&buf)
	out := buf.String()

	for _, want := range []string{
		`mmkv_entries 99`,
		`mmkv_write_index 100`,
		`mmkv_ops_total{op="write"} 101`,
		`mmkv_ops_total{op="read"} 2`,
		`mmkv_ops_total{op="delete"} 1`,
		`mmkv_read_hits_total 1`,
		`mmkv_rehash_total{event="started"}`,
		`mmkv_rehashing_shards`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output is missing %q:\n%s", want, out)
		}
	}
}

func TestGetInfo(t *testing.T) {
	m := newTestDB(t, DBOptions{NumShards: 3, BucketKind: BucketList})

	for i := 0; i < 300; i++ {
		m.Set(fmt.Sprintf("key-%d", i), []byte("0123456789"), 0)
	}

	info := m.GetInfo()
	if info.DbType != db.ImplMMKV {
		t.Errorf("unexpected db type %q", info.DbType)
	}
	if info.SizeBytes < 300*10 {
		t.Errorf("size estimate too small: %d", info.SizeBytes)
	}

	meta, ok := info.Metadata.(*Info)
	if !ok {
		t.Fatalf("unexpected metadata type %T", info.Metadata)
	}
	if meta.Entries != 300 || meta.ShardCount != 3 || meta.BucketKind != BucketList {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	sum := 0
	for _, s := range meta.Shards {
		sum += s.Entries
		if s.Buckets == 0 {
			t.Errorf("shard without buckets: %+v", s)
		}
	}
	if sum != 300 {
		t.Errorf("shard entries sum to %d", sum)
	}
	if meta.ShardDistribution.Mean != 100 {
		t.Errorf("unexpected shard mean %f", meta.ShardDistribution.Mean)
	}
}

func TestSupportsFeature(t *testing.T) {
	m := newTestDB(t, DBOptions{})

	if !m.SupportsFeature(db.FeatureSet | db.FeatureLoad | db.FeatureMetrics) {
		t.Errorf("expected combined features to be supported")
	}
	if m.SupportsFeature(db.Feature(1 << 40)) {
		t.Errorf("unknown feature reported as supported")
	}
}

func TestLoadErrors(t *testing.T) {
	src := newTestDB(t, DBOptions{})
	for i := 0; i < 10; i++ {
		src.Set(fmt.Sprintf("key-%d", i), []byte("value"), uint64(i))
	}
	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatal(err)
	}
	snapshot := buf.Bytes()

	if !bytes.HasPrefix(snapshot, []byte(magicNum)) {
		t.Fatalf("snapshot does not start with the magic number")
	}

	cases := []struct {
		name    string
		data    []byte
		invalid bool
	}{
		{"magic", append([]byte("NOTMMKV\x00"), snapshot[len(magicNum):]...), true},
		{"version", append(append([]byte(magicNum), 99), snapshot[len(magicNum)+1:]...), true},
		{"truncated", snapshot[:len(snapshot)-3], false},
		{"header only", snapshot[:len(magicNum)+1], false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestDB(t, DBOptions{})
			m.Set("existing", []byte("value"), 1)

			err := m.Load(bytes.NewReader(tc.data))
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.Is(err, ErrInvalidSnapshot) != tc.invalid {
				t.Errorf("unexpected error: %v", err)
			}
			if m.Has("existing") || entries(m) != 0 {
				t.Errorf("a failed load must leave the database empty")
			}
		})
	}
}

func TestLoadRestartsGC(t *testing.T) {
	src := newTestDB(t, DBOptions{})
	src.SetE("key", []byte("value"), 10, 0, 1)
	var buf bytes.Buffer
	if err := src.Save(&buf); err != nil {
		t.Fatal(err)
	}

	m := newMMKV(&DBOptions{NumShards: 2, GCInterval: time.Millisecond})
	defer m.Close()
	if err := m.Load(&buf); err != nil {
		t.Fatal(err)
	}
	m.SetWriteIdx(11)

	deadline := time.Now().Add(5 * time.Second)
	for entries(m) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("gc did not run on the loaded shards")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParseBucketKind(t *testing.T) {
	for in, want := range map[string]BucketKind{"tree": BucketTree, "LIST": BucketList} {
		got, err := ParseBucketKind(in)
		if err != nil || got != want {
			t.Errorf("ParseBucketKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBucketKind("skiplist"); err == nil {
		t.Errorf("expected an error for an unknown kind")
	}
}

func TestCloseIdempotent(t *testing.T) {
	m := newMMKV(nil)
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
}
