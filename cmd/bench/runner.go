package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/dustin/go-humanize"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/ValentinKolb/mmkv/lib/store"
)

// --------------------------------------------------------------------------
// Targets
// --------------------------------------------------------------------------

// target is the subset of store.IStore exercised by the benchmark
type target interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) error
}

// mapTarget is the baseline: a Go map behind a single mutex. Go maps grow by
// evacuating buckets on write as well, but the whole map is blocked while one
// writer holds the lock.
type mapTarget struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapTarget() *mapTarget {
	return &mapTarget{m: make(map[string][]byte)}
}

func (t *mapTarget) Set(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	t.mu.Lock()
	t.m[key] = v
	t.mu.Unlock()
	return nil
}

func (t *mapTarget) Get(key string) ([]byte, bool, error) {
	t.mu.Lock()
	v, ok := t.m[key]
	t.mu.Unlock()
	return v, ok, nil
}

func (t *mapTarget) Delete(key string) error {
	t.mu.Lock()
	delete(t.m, key)
	t.mu.Unlock()
	return nil
}

// --------------------------------------------------------------------------
// Phases
// --------------------------------------------------------------------------

// phase is one pass over all keys. op is called once per key.
type phase struct {
	name string
	op   func(t target, key string, value []byte, i int) error
}

var phases = []phase{
	{"insert", func(t target, key string, value []byte, _ int) error {
		return t.Set(key, value)
	}},
	{"get", func(t target, key string, _ []byte, _ int) error {
		_, _, err := t.Get(key)
		return err
	}},
	{"update", func(t target, key string, value []byte, _ int) error {
		return t.Set(key, value)
	}},
	{"mixed", func(t target, key string, value []byte, i int) error {
		switch i % 4 {
		case 0:
			return t.Set(key, value)
		case 1:
			return ignoreNotFound(t.Delete(key))
		default:
			_, _, err := t.Get(key)
			return err
		}
	}},
	{"delete", func(t target, key string, _ []byte, _ int) error {
		return ignoreNotFound(t.Delete(key))
	}},
}

func ignoreNotFound(err error) error {
	if store.Code(err) == store.RetCKeyNotFound {
		return nil
	}
	return err
}

// --------------------------------------------------------------------------
// Runner
// --------------------------------------------------------------------------

// config holds the parameters of a benchmark run
type config struct {
	Keys      int
	Threads   int
	ValueSize int
	Skip      []string
}

func (c config) skipped(name string) bool {
	for _, s := range c.Skip {
		if s == name {
			return true
		}
	}
	return false
}

// result of one phase
type result struct {
	Target    string
	Phase     string
	Ops       int64
	Elapsed   time.Duration
	Mean      time.Duration
	P50       time.Duration
	P99       time.Duration
	P999      time.Duration
	Max       time.Duration
	HeapBytes uint64
}

// OpsPerSec returns the throughput of the phase
func (r result) OpsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// runner runs all phases against one target. Latencies of every phase are
// recorded in a timer of registry named "<target>.<phase>".
type runner struct {
	conf     config
	pool     pond.Pool
	registry gometrics.Registry
}

func newRunner(conf config, registry gometrics.Registry) *runner {
	return &runner{
		conf:     conf,
		pool:     pond.NewPool(conf.Threads),
		registry: registry,
	}
}

func (r *runner) stop() {
	r.pool.StopAndWait()
}

func (r *runner) run(name string, t target) ([]result, error) {
	keys := make([]string, r.conf.Keys)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-%08d", i)
	}
	value := make([]byte, r.conf.ValueSize)
	for i := range value {
		value[i] = byte('a' + i%26)
	}

	var results []result
	for _, p := range phases {
		if r.conf.skipped(p.name) {
			continue
		}
		res, err := r.runPhase(name, p, t, keys, value)
		if err != nil {
			return results, fmt.Errorf("%s/%s: %w", name, p.name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *runner) runPhase(name string, p phase, t target, keys []string, value []byte) (result, error) {
	// the reservoir holds every sample, so Max is exact
	timer := gometrics.NewCustomTimer(
		gometrics.NewHistogram(gometrics.NewUniformSample(len(keys))),
		gometrics.NewMeter(),
	)
	if err := r.registry.Register(name+"."+p.name, timer); err != nil {
		return result{}, err
	}
	defer timer.Stop()

	threads := r.conf.Threads
	group := r.pool.NewGroup()
	start := time.Now()
	for w := 0; w < threads; w++ {
		group.SubmitErr(func() error {
			for i := w; i < len(keys); i += threads {
				opStart := time.Now()
				if err := p.op(t, keys[i], value, i); err != nil {
					return err
				}
				timer.UpdateSince(opStart)
			}
			return nil
		})
	}
	err := group.Wait()
	elapsed := time.Since(start)
	if err != nil {
		return result{}, err
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ps := timer.Percentiles([]float64{0.5, 0.99, 0.999})
	return result{
		Target:    name,
		Phase:     p.name,
		Ops:       timer.Count(),
		Elapsed:   elapsed,
		Mean:      time.Duration(timer.Mean()),
		P50:       time.Duration(ps[0]),
		P99:       time.Duration(ps[1]),
		P999:      time.Duration(ps[2]),
		Max:       time.Duration(timer.Max()),
		HeapBytes: m.HeapAlloc,
	}, nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

const rowFormat = "%-10s %-8s %12s %10s %10s %10s %10s %10s %10s\n"

func printHeader(w io.Writer) {
	fmt.Fprintf(w, rowFormat, "TARGET", "PHASE", "OPS/SEC", "MEAN", "P50", "P99", "P99.9", "MAX", "HEAP")
}

func printResult(w io.Writer, r result) {
	fmt.Fprintf(w, rowFormat,
		r.Target,
		r.Phase,
		humanize.Comma(int64(r.OpsPerSec())),
		r.Mean.String(),
		r.P50.String(),
		r.P99.String(),
		r.P999.String(),
		r.Max.String(),
		humanize.Bytes(r.HeapBytes),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result, conf config) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	return writeCSV(file, results, conf)
}

func writeCSV(w io.Writer, results []result, conf config) error {
	writer := csv.NewWriter(w)

	header := []string{
		"Target", "Phase", "Ops", "ElapsedNs", "OpsPerSec",
		"MeanNs", "P50Ns", "P99Ns", "P999Ns", "MaxNs", "HeapBytes",
		"Keys", "Threads", "ValueSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		row := []string{
			r.Target,
			r.Phase,
			strconv.FormatInt(r.Ops, 10),
			strconv.FormatInt(r.Elapsed.Nanoseconds(), 10),
			fmt.Sprintf("%.0f", r.OpsPerSec()),
			strconv.FormatInt(r.Mean.Nanoseconds(), 10),
			strconv.FormatInt(r.P50.Nanoseconds(), 10),
			strconv.FormatInt(r.P99.Nanoseconds(), 10),
			strconv.FormatInt(r.P999.Nanoseconds(), 10),
			strconv.FormatInt(r.Max.Nanoseconds(), 10),
			strconv.FormatUint(r.HeapBytes, 10),
			strconv.Itoa(conf.Keys),
			strconv.Itoa(conf.Threads),
			strconv.Itoa(conf.ValueSize),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s/%s: %v", r.Target, r.Phase, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
