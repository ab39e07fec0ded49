package hashtable

import (
	"maps"
	"slices"
	"strings"
	"testing"
)

func TestSet(t *testing.T) {
	s := NewSet(StringHasher())
	for _, k := range []string{"x", "y", "z"} {
		if !s.Add(k) {
			t.Errorf("Add(%s) should report a new key", k)
		}
	}
	if s.Add("x") {
		t.Error("second Add(x) should report a duplicate")
	}
	if !s.Has("y") || s.Has("w") {
		t.Error("Has returned a wrong result")
	}
	if !s.Remove("y") || s.Remove("y") {
		t.Error("Remove should succeed exactly once")
	}

	keys := slices.Sorted(s.All())
	if !slices.Equal(keys, []string{"x", "z"}) {
		t.Errorf("unexpected keys %v", keys)
	}
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("expected empty set, got %d", s.Len())
	}
}

func TestSetCustomOrder(t *testing.T) {
	fold := StringHasher()
	s := NewSetFunc(func(k string) uint64 { return fold(strings.ToLower(k)) }, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	s.Add("Key")
	if s.Add("KEY") {
		t.Error("case-insensitive set accepted a duplicate")
	}
	if !s.Has("key") {
		t.Error("case-insensitive lookup failed")
	}
}

func TestMap(t *testing.T) {
	m := NewMap[int, string](IntHasher[int]())
	for i := 0; i < 100; i++ {
		if !m.Put(i, "v") {
			t.Fatalf("Put(%d) should report a new key", i)
		}
	}
	if m.Put(5, "five") {
		t.Error("Put of an existing key should report a replacement")
	}
	if v, ok := m.Get(5); !ok || v != "five" {
		t.Errorf("Get(5) = %q, %v", v, ok)
	}
	if _, ok := m.Get(500); ok {
		t.Error("Get of an absent key should fail")
	}

	p, ok := m.PutIfAbsent(5, "ignored")
	if ok || *p != "five" {
		t.Errorf("PutIfAbsent should keep the existing value, got %q", *p)
	}
	*m.Ptr(6) = "six"
	if v, _ := m.Get(6); v != "six" {
		t.Error("update through Ptr was lost")
	}
	if m.Ptr(1000) != nil {
		t.Error("Ptr of an absent key should be nil")
	}

	if !m.Delete(7) || m.Delete(7) {
		t.Error("Delete should succeed exactly once")
	}
	all := maps.Collect(m.All())
	if len(all) != 99 || m.Len() != 99 {
		t.Errorf("expected 99 pairs, got %d / %d", len(all), m.Len())
	}
	if err := m.Index().Verify(); err != nil {
		t.Error(err)
	}
}

func TestHashers(t *testing.T) {
	h := IntHasher[uint32]()
	if h(1) == h(2) {
		t.Error("sequential keys should hash differently")
	}
	// low bits of sequential keys must spread over small tables
	slots := make(map[uint64]bool)
	for i := uint32(0); i < 64; i++ {
		slots[h(i)&7] = true
	}
	if len(slots) != 8 {
		t.Errorf("sequential keys hit only %d of 8 slots", len(slots))
	}

	sh := StringHasher()
	if sh("a") != sh("a") {
		t.Error("string hash is not deterministic")
	}
	bh := BytesHasher()
	if bh([]byte("abc")) != bh([]byte("abc")) {
		t.Error("bytes hash is not deterministic")
	}
}
