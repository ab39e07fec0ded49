package util

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

func TestHashString(t *testing.T) {
	if HashString("key", 1) != HashString("key", 1) {
		t.Error("HashString is not deterministic")
	}
	if HashString("key", 1) == HashString("key", 2) {
		t.Error("different seeds should give different hashes")
	}

	h := NewStringHasher(7)
	slots := make(map[uint64]bool)
	for i := 0; i < 256; i++ {
		slots[h(string(rune('a'+i%26))+strings.Repeat("x", i/26))&15] = true
	}
	if len(slots) != 16 {
		t.Errorf("similar keys hit only %d of 16 slots", len(slots))
	}
}

func TestShardIndex(t *testing.T) {
	counts := make([]int, 8)
	for i := 0; i < 8000; i++ {
		counts[ShardIndex(HashString("key-"+strconv.Itoa(i), 3), 8)]++
	}
	for i, c := range counts {
		if c < 600 || c > 1400 {
			t.Errorf("shard %d got %d of 8000 keys", i, c)
		}
	}
}

func TestStats(t *testing.T) {
	s := NewStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Mean != 5 || s.StdDeviation != 2 || s.Min != 2 || s.Max != 9 {
		t.Errorf("unexpected stats %+v", s)
	}
	if (NewStats(nil) != Stats{}) {
		t.Error("stats of no values should be zero")
	}

	even := NewLoadStats([]int{10, 10, 10})
	if even.DistributionQuality != 1 {
		t.Errorf("even distribution should have quality 1, got %f", even.DistributionQuality)
	}
	skewed := NewLoadStats([]int{0, 0, 30})
	if skewed.DistributionQuality >= 0.5 {
		t.Errorf("skewed distribution should have low quality, got %f", skewed.DistributionQuality)
	}
}

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	if h.MedianEstimate() != 0 || h.AverageSize() != 0 {
		t.Error("empty histogram should report zero")
	}

	for i := 0; i < 90; i++ {
		h.AddSample(10)
	}
	for i := 0; i < 10; i++ {
		h.AddSample(5000)
	}

	if h.Count() != 100 {
		t.Errorf("expected 100 samples, got %d", h.Count())
	}
	if h.AverageSize() != (90*10+10*5000)/100 {
		t.Errorf("unexpected average %d", h.AverageSize())
	}
	if h.MedianEstimate() != 8 {
		t.Errorf("median should fall into the first bucket, got %d", h.MedianEstimate())
	}
	if p := h.PercentileEstimate(99); p != (4096+16384)/2 {
		t.Errorf("99th percentile should fall into the 16KB bucket, got %d", p)
	}
	if h.PercentileEstimate(101) != 0 {
		t.Error("invalid percentile should return 0")
	}
	if !strings.Contains(h.String(), "100 samples") {
		t.Errorf("unexpected String() %q", h.String())
	}

	h.Reset()
	if h.Count() != 0 || math.Abs(float64(h.AverageSize())) != 0 {
		t.Error("Reset should clear the histogram")
	}
}
