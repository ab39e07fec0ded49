package testing

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/mmkv/lib/db"
)

// DBFactory is a function that creates a new instance of a KVDB implementation
type DBFactory func() db.KVDB

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory())
		})

		t.Run("StaleWrites", func(t *testing.T) {
			testStaleWrites(t, factory())
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory())
		})

		t.Run("SetEIfUnset", func(t *testing.T) {
			testSetEIfUnset(t, factory())
		})

		t.Run("KeyExpiry", func(t *testing.T) {
			testKeyExpiry(t, factory())
		})

		t.Run("ManyExpiringKeys", func(t *testing.T) {
			testManyExpiringKeys(t, factory())
		})

		t.Run("WriteIdx", func(t *testing.T) {
			testWriteIdx(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("LoadInvalid", func(t *testing.T) {
			testLoadInvalid(t, factory())
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("Growth", func(t *testing.T) {
			testGrowth(t, factory())
		})

		t.Run("ConcurrentUsage", func(t *testing.T) {
			testConcurrentUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the database supports the specified features
// Skip the test if one of them is not supported
func requireFeature(t testing.TB, database db.KVDB, features ...db.Feature) {
	t.Helper()
	for _, f := range features {
		if !database.SupportsFeature(f) {
			t.Skipf("feature %s not supported", f)
		}
	}
}

// expectValue fails the test unless key holds want
func expectValue(t testing.TB, database db.KVDB, key string, want []byte) {
	t.Helper()
	got, ok := database.Get(key)
	if !ok {
		t.Errorf("Expected key %q to exist", key)
		return
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Key %q: expected value %q, got %q", key, want, got)
	}
}

// expectMissing fails the test if key holds a value
func expectMissing(t testing.TB, database db.KVDB, key string) {
	t.Helper()
	if got, ok := database.Get(key); ok {
		t.Errorf("Expected key %q to have no value, got %q", key, got)
	}
}

func testKey(prefix string, i int) string {
	return fmt.Sprintf("%s-%d", prefix, i)
}

func testValue(i int) []byte {
	return []byte(fmt.Sprintf("value-%d", i))
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet)

	database.Set("key", []byte("value1"), 0)
	expectValue(t, database, "key", []byte("value1"))

	database.Set("key", []byte("value2"), 0)
	expectValue(t, database, "key", []byte("value2"))

	expectMissing(t, database, "nonexistent-key")

	// Get returns a copy
	got, _ := database.Get("key")
	got[0] = 'X'
	expectValue(t, database, "key", []byte("value2"))

	// Set copies the input
	input := []byte("value3")
	database.Set("key", input, 1)
	input[0] = 'X'
	expectValue(t, database, "key", []byte("value3"))
}

func testStaleWrites(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet, db.FeatureExpire)

	database.Set("key", []byte("new"), 10)

	// writes with a lower index are ignored
	database.Set("key", []byte("old"), 5)
	expectValue(t, database, "key", []byte("new"))

	database.SetE("key", []byte("old"), 9, 1, 1)
	expectValue(t, database, "key", []byte("new"))

	database.Expire("key", 3)
	expectValue(t, database, "key", []byte("new"))

	// equal index wins
	database.Set("key", []byte("same"), 10)
	expectValue(t, database, "key", []byte("same"))

	if database.WriteIdx() != 10 {
		t.Errorf("Expected write index 10, got %d", database.WriteIdx())
	}
}

func testKeyExpiry(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetE, db.FeatureGet, db.FeatureHas)

	type step struct {
		idx          uint64
		value, found bool
	}

	cases := []struct {
		key      string
		start    uint64
		expireIn uint64
		deleteIn uint64
		steps    []step
	}{
		{"expire-then-delete", 100, 10, 20, []step{
			{109, true, true}, {110, false, true}, {119, false, true}, {120, false, false},
		}},
		{"delete-only", 200, 0, 10, []step{
			{209, true, true}, {210, false, false},
		}},
		{"expire-only", 300, 5, 0, []step{
			{304, true, true}, {305, false, true}, {1000, false, true},
		}},
		{"forever", 1100, 0, 0, []step{
			{5000, true, true},
		}},
	}

	for _, tc := range cases {
		value := []byte(tc.key)
		database.SetE(tc.key, value, tc.start, tc.expireIn, tc.deleteIn)

		for _, s := range tc.steps {
			database.SetWriteIdx(s.idx)

			got, ok := database.Get(tc.key)
			if ok != s.value {
				t.Errorf("%s at %d: Get found=%v, expected %v", tc.key, s.idx, ok, s.value)
			}
			if ok && !bytes.Equal(got, value) {
				t.Errorf("%s at %d: expected value %q, got %q", tc.key, s.idx, value, got)
			}
			if has := database.Has(tc.key); has != s.found {
				t.Errorf("%s at %d: Has=%v, expected %v", tc.key, s.idx, has, s.found)
			}
		}
	}
}

func testManyExpiringKeys(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetE, db.FeatureGet)

	const (
		numKeys   = 1000
		baseIndex = uint64(1000)
	)

	for i := 0; i < numKeys; i++ {
		database.SetE(testKey("expire", i), testValue(i), baseIndex, uint64(i%100), 0)
	}

	for offset := uint64(0); offset <= 100; offset += 10 {
		database.SetWriteIdx(baseIndex + offset)

		for i := 0; i < numKeys; i++ {
			ttl := uint64(i % 100)
			_, ok := database.Get(testKey("expire", i))
			if expired := ttl > 0 && ttl <= offset; ok == expired {
				t.Fatalf("Key %d (ttl %d) at offset %d: found=%v", i, ttl, offset, ok)
			}
		}
	}
}

func testExpire(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet, db.FeatureExpire, db.FeatureHas)

	database.Set("key", []byte("value"), 0)
	database.Expire("key", 10)

	expectMissing(t, database, "key")
	if !database.Has("key") {
		t.Errorf("Expected key to be findable with Has after Expire")
	}

	// expiring a missing key does not create it
	database.Expire("nonexistent-key", 11)
	if database.Has("nonexistent-key") {
		t.Errorf("Expire must not create a key")
	}

	// a new write revives the value
	database.Set("key", []byte("again"), 12)
	expectValue(t, database, "key", []byte("again"))
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet, db.FeatureDelete, db.FeatureHas)

	database.Set("key", []byte("value"), 0)

	if !database.Delete("key", 10) {
		t.Errorf("Expected Delete to report an existing key")
	}
	expectMissing(t, database, "key")
	if database.Has("key") {
		t.Errorf("Expected key to be gone after Delete")
	}

	if database.Delete("key", 11) {
		t.Errorf("Expected second Delete to report a missing key")
	}
	if database.Delete("nonexistent-key", 12) {
		t.Errorf("Expected Delete of a nonexistent key to report false")
	}

	// logically deleted keys count as missing
	database.SetE("ttl-key", []byte("value"), 20, 0, 5)
	database.SetWriteIdx(25)
	if database.Delete("ttl-key", 25) {
		t.Errorf("Expected Delete of a logically deleted key to report false")
	}

	// every other key of a larger set
	for i := 0; i < 1000; i++ {
		database.Set(testKey("delete", i), testValue(i), 30)
	}
	for i := 0; i < 1000; i += 2 {
		if !database.Delete(testKey("delete", i), 31) {
			t.Fatalf("Delete of key %d reported false", i)
		}
	}
	for i := 0; i < 1000; i++ {
		if i%2 == 0 {
			expectMissing(t, database, testKey("delete", i))
		} else {
			expectValue(t, database, testKey("delete", i), testValue(i))
		}
	}
}

func testHas(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureHas, db.FeatureExpire)

	if database.Has("key") {
		t.Errorf("Expected Has to return false for nonexistent key")
	}

	database.Set("key", []byte("value"), 0)
	if !database.Has("key") {
		t.Errorf("Expected Has to return true after Set")
	}

	database.Expire("key", 0)
	if !database.Has("key") {
		t.Errorf("Expected Has to return true after Expire")
	}
}

func testSetEIfUnset(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSetEIfUnset, db.FeatureGet, db.FeatureDelete)

	if !database.SetEIfUnset("key", []byte("first"), 0, 10, 0) {
		t.Errorf("Expected SetEIfUnset to store a new key")
	}
	expectValue(t, database, "key", []byte("first"))

	if database.SetEIfUnset("key", []byte("second"), 5, 20, 0) {
		t.Errorf("Expected SetEIfUnset to reject an existing key")
	}
	expectValue(t, database, "key", []byte("first"))

	// the ttl of the first write still applies
	database.SetWriteIdx(11)
	expectMissing(t, database, "key")

	// an expired key still exists
	if database.SetEIfUnset("key", []byte("third"), 12, 0, 0) {
		t.Errorf("Expected SetEIfUnset to reject an expired key")
	}

	// a deleted key is unset again
	database.Delete("key", 13)
	if !database.SetEIfUnset("key", []byte("fourth"), 14, 0, 0) {
		t.Errorf("Expected SetEIfUnset to store a deleted key")
	}
	expectValue(t, database, "key", []byte("fourth"))

	// same for a logically deleted key
	database.SetE("ttl-key", []byte("a"), 20, 0, 5)
	database.SetWriteIdx(30)
	if !database.SetEIfUnset("ttl-key", []byte("b"), 30, 0, 0) {
		t.Errorf("Expected SetEIfUnset to store a logically deleted key")
	}
	expectValue(t, database, "ttl-key", []byte("b"))
}

func testWriteIdx(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet)

	if database.WriteIdx() != 0 {
		t.Errorf("Expected a new database to start at index 0, got %d", database.WriteIdx())
	}

	database.SetWriteIdx(10)
	database.SetWriteIdx(5)
	if database.WriteIdx() != 10 {
		t.Errorf("Expected index 10, got %d", database.WriteIdx())
	}

	database.Set("key", []byte("value"), 20)
	database.Set("key2", []byte("value"), 15)
	if database.WriteIdx() != 20 {
		t.Errorf("Expected index 20 after writes, got %d", database.WriteIdx())
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	database2 := factory()
	defer database.Close()
	defer database2.Close()

	requireFeature(t, database, db.FeatureSetE, db.FeatureGet, db.FeatureSave, db.FeatureLoad, db.FeatureExpire)

	const numEntries = 1000
	for i := 0; i < numEntries; i++ {
		database.Set(testKey("save", i), testValue(i), uint64(i))
	}
	database.SetE("expiring", []byte("soon"), numEntries, 50, 0)
	database.SetE("deleting", []byte("later"), numEntries, 0, 100)
	database.SetE("gone", []byte("gone"), numEntries, 0, 1)
	database.Set("expired", []byte("x"), numEntries)
	database.Expire("expired", numEntries+10)

	// existing data of the target is replaced
	database2.Set("stale", []byte("stale"), 1)

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Unexpected error during Save: %v", err)
	}
	if err := database2.Load(&buf); err != nil {
		t.Fatalf("Unexpected error during Load: %v", err)
	}

	for i := 0; i < numEntries; i++ {
		expectValue(t, database2, testKey("save", i), testValue(i))
		expectValue(t, database, testKey("save", i), testValue(i))
	}
	if database2.Has("stale") {
		t.Errorf("Load must replace the existing data")
	}
	if database2.Has("gone") {
		t.Errorf("Logically deleted entries must not be restored")
	}
	expectMissing(t, database2, "expired")
	if !database2.Has("expired") {
		t.Errorf("Expired entries keep their key")
	}
	if database2.WriteIdx() != database.WriteIdx() {
		t.Errorf("Expected restored write index %d, got %d", database.WriteIdx(), database2.WriteIdx())
	}

	// ttls survive the snapshot
	expectValue(t, database2, "expiring", []byte("soon"))
	database2.SetWriteIdx(numEntries + 50)
	expectMissing(t, database2, "expiring")
	expectValue(t, database2, "deleting", []byte("later"))
	database2.SetWriteIdx(numEntries + 100)
	if database2.Has("deleting") {
		t.Errorf("Expected restored deletion time to apply")
	}
}

func testLoadInvalid(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureLoad)

	if err := database.Load(bytes.NewReader([]byte("definitely not a snapshot"))); err == nil {
		t.Errorf("Expected an error for an invalid snapshot")
	}
	if err := database.Load(bytes.NewReader(nil)); err == nil {
		t.Errorf("Expected an error for an empty snapshot")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet)

	database.Set("", []byte("value for empty key"), 0)
	expectValue(t, database, "", []byte("value for empty key"))

	database.Set("empty-value", []byte{}, 0)
	expectValue(t, database, "empty-value", []byte{})

	database.Set("nil-value", nil, 0)
	if got, ok := database.Get("nil-value"); !ok || len(got) != 0 {
		t.Errorf("Nil value: found=%v, value=%v", ok, got)
	}

	largeKey := string(make([]byte, 1000))
	database.Set(largeKey, []byte("value for large key"), 0)
	expectValue(t, database, largeKey, []byte("value for large key"))

	largeValue := make([]byte, 8*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 251)
	}
	database.Set("large-value", largeValue, 0)
	if got, ok := database.Get("large-value"); !ok || !bytes.Equal(got, largeValue) {
		t.Errorf("Large value mismatch (found=%v, len=%d)", ok, len(got))
	}

	// keys that only differ in a single byte
	database.Set("a\x00", []byte("1"), 0)
	database.Set("a\x01", []byte("2"), 0)
	expectValue(t, database, "a\x00", []byte("1"))
	expectValue(t, database, "a\x01", []byte("2"))
}

func testGrowth(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet, db.FeatureDelete)

	// enough keys to force many rehashes; every key must stay reachable while
	// the indexes migrate
	const numKeys = 50_000
	for i := 0; i < numKeys; i++ {
		database.Set(testKey("grow", i), testValue(i), uint64(i))
		if i%997 == 0 {
			for j := 0; j <= i; j += 101 {
				expectValue(t, database, testKey("grow", j), testValue(j))
			}
		}
	}
	for i := 0; i < numKeys; i++ {
		expectValue(t, database, testKey("grow", i), testValue(i))
	}
	for i := 0; i < numKeys; i += 3 {
		database.Delete(testKey("grow", i), numKeys)
	}
	for i := 0; i < numKeys; i++ {
		if _, ok := database.Get(testKey("grow", i)); ok != (i%3 != 0) {
			t.Fatalf("Key %d: found=%v after deleting every third key", i, ok)
		}
	}
}

func testConcurrentUsage(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureSet, db.FeatureGet, db.FeatureDelete)

	const (
		numWorkers = 8
		opsPerKey  = 20
		keysPer    = 500
	)

	// every worker owns its keys, so the final state is known exactly; hot keys
	// are shared and only checked for readability
	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for op := 0; op < opsPerKey; op++ {
				for k := 0; k < keysPer; k++ {
					key := fmt.Sprintf("w%d-k%d", w, k)
					idx := uint64(op)
					switch {
					case op == opsPerKey-1 && k%4 == 0:
						database.Delete(key, idx)
					case op%5 == 4:
						database.Get(key)
					default:
						database.Set(key, []byte(fmt.Sprintf("%s-op%d", key, op)), idx)
					}
					if k%50 == 0 {
						database.Set(fmt.Sprintf("hot-%d", k%7), []byte("hot"), idx)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < numWorkers; w++ {
		for k := 0; k < keysPer; k++ {
			key := fmt.Sprintf("w%d-k%d", w, k)
			if k%4 == 0 {
				expectMissing(t, database, key)
				continue
			}
			expectValue(t, database, key, []byte(fmt.Sprintf("%s-op%d", key, opsPerKey-2)))
		}
	}
	for h := 0; h < 7; h++ {
		expectValue(t, database, fmt.Sprintf("hot-%d", h), []byte("hot"))
	}
}
