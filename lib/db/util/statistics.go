package util

import (
	"fmt"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
)

// ----------------------------------------------------------------------------
// Distribution Statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, standard deviation, minimum and maximum of values.
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		StdDeviation: math.Sqrt(sumSquaredDiffs / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats computes quality metrics for a distribution of sizes
// (entries per shard, entries per bucket). A quality of 1 means perfectly even.
func NewDistributionStats(sizes []float64) DistributionStats {
	stats := NewStats(sizes)

	// coefficient of variation
	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower CV and higher min/max ratio indicate better distribution
	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}

// NewLoadStats is NewDistributionStats for integer loads.
func NewLoadStats(loads []int) DistributionStats {
	values := make([]float64, len(loads))
	for i, l := range loads {
		values[i] = float64(l)
	}
	return NewDistributionStats(values)
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// sizeBoundaries are the upper bounds of the histogram buckets, 16B to 4GB.
var sizeBoundaries = []int{
	16, 64, 256, 1024, 4096,
	16384, 65536, 262144, 1048576,
	4194304, 16777216, 67108864,
	268435456, 1073741824, 4294967296,
}

// SizeHistogram tracks the distribution of value sizes in exponential buckets.
//
// Thread-safety: all methods are safe for concurrent use.
type SizeHistogram struct {
	mutex   sync.RWMutex
	buckets [16]int64 // one per boundary plus one for larger values
	count   int64
	sum     int64
}

func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{}
}

// AddSample records one value of the given size.
func (h *SizeHistogram) AddSample(size int) {
	i := len(sizeBoundaries)
	for j, boundary := range sizeBoundaries {
		if size <= boundary {
			i = j
			break
		}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.buckets[i]++
	h.count++
	h.sum += int64(size)
}

func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// AverageSize returns the exact average of all samples.
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// MedianEstimate estimates the median from the bucket boundaries.
func (h *SizeHistogram) MedianEstimate() int {
	return h.PercentileEstimate(50)
}

// PercentileEstimate estimates the given percentile (0-100).
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(h.count) * float64(percentile) / 100.0))
	var cumulative int64
	for i, count := range h.buckets {
		cumulative += count
		if cumulative < target || count == 0 {
			continue
		}
		switch {
		case i == 0:
			return sizeBoundaries[0] / 2
		case i < len(sizeBoundaries):
			return (sizeBoundaries[i-1] + sizeBoundaries[i]) / 2
		default:
			return sizeBoundaries[len(sizeBoundaries)-1] * 2
		}
	}
	return int(h.sum / h.count)
}

// Reset clears all samples.
func (h *SizeHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.buckets = [16]int64{}
	h.count = 0
	h.sum = 0
}

func (h *SizeHistogram) String() string {
	return fmt.Sprintf("%s samples, avg %s, median ~%s",
		humanize.Comma(h.Count()),
		humanize.IBytes(uint64(h.AverageSize())),
		humanize.IBytes(uint64(h.MedianEstimate())))
}
