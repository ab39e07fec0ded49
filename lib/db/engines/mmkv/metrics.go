package mmkv

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv/internal"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

// --------------------------------------------------------------------------
// Engine Metrics
// --------------------------------------------------------------------------

// engineMetrics holds the metrics of one engine instance. Counters touched on
// every operation are xsync counters (striped, no shared cache line), they are
// exported through gauges when the set is written.
type engineMetrics struct {
	set *metrics.Set

	rehashStarted  *metrics.Counter
	rehashFinished *metrics.Counter
	gcExpired      *metrics.Counter
	gcDeleted      *metrics.Counter
	staleWrites    *metrics.Counter
	snapshots      *metrics.Counter
	restores       *metrics.Counter

	writes  *xsync.Counter
	reads   *xsync.Counter
	hits    *xsync.Counter
	deletes *xsync.Counter
}

func newEngineMetrics(m *mmkvImpl) *engineMetrics {
	s := metrics.NewSet()
	em := &engineMetrics{
		set:            s,
		rehashStarted:  s.NewCounter(`mmkv_rehash_total{event="started"}`),
		rehashFinished: s.NewCounter(`mmkv_rehash_total{event="finished"}`),
		gcExpired:      s.NewCounter(`mmkv_gc_collected_total{kind="expired"}`),
		gcDeleted:      s.NewCounter(`mmkv_gc_collected_total{kind="deleted"}`),
		staleWrites:    s.NewCounter(`mmkv_stale_writes_total`),
		snapshots:      s.NewCounter(`mmkv_snapshots_total{op="save"}`),
		restores:       s.NewCounter(`mmkv_snapshots_total{op="load"}`),
		writes:         xsync.NewCounter(),
		reads:          xsync.NewCounter(),
		hits:           xsync.NewCounter(),
		deletes:        xsync.NewCounter(),
	}

	counterGauge := func(name string, c *xsync.Counter) {
		s.NewGauge(name, func() float64 { return float64(c.Value()) })
	}
	counterGauge(`mmkv_ops_total{op="write"}`, em.writes)
	counterGauge(`mmkv_ops_total{op="read"}`, em.reads)
	counterGauge(`mmkv_ops_total{op="delete"}`, em.deletes)
	counterGauge(`mmkv_read_hits_total`, em.hits)

	s.NewGauge(`mmkv_write_index`, func() float64 { return float64(m.WriteIdx()) })
	s.NewGauge(`mmkv_entries`, func() float64 {
		n := 0
		m.eachShard(func(_ int, s *internal.Shard) { n += s.Data.Len() })
		return float64(n)
	})
	s.NewGauge(`mmkv_buckets`, func() float64 {
		n := 0
		m.eachShard(func(_ int, s *internal.Shard) { n += s.Data.Buckets() })
		return float64(n)
	})
	s.NewGauge(`mmkv_rehashing_shards`, func() float64 {
		n := 0
		m.eachShard(func(_ int, s *internal.Shard) {
			if s.Data.Rehashing() {
				n++
			}
		})
		return float64(n)
	})
	s.NewGauge(`mmkv_gc_backlog`, func() float64 {
		n := 0
		m.eachShard(func(_ int, s *internal.Shard) { n += s.ExpireQueue.Len() + s.DeleteQueue.Len() })
		return float64(n)
	})

	return em
}

// rehashHook returns the hook installed into every shard index. It runs
// under the shard lock.
func (em *engineMetrics) rehashHook(shard int) func(hashtable.RehashEvent) {
	return func(ev hashtable.RehashEvent) {
		switch ev.Kind {
		case hashtable.RehashStarted:
			em.rehashStarted.Inc()
			log.Debugf("shard %d: rehash started (%d -> %d buckets, %d entries)", shard, ev.From, ev.To, ev.Len)
		case hashtable.RehashFinished:
			em.rehashFinished.Inc()
			log.Debugf("shard %d: rehash finished (%d buckets, %d entries)", shard, ev.To, ev.Len)
		}
	}
}

// WriteMetrics writes all engine metrics in the Prometheus text format.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// It must not be called while holding a shard lock.
func (m *mmkvImpl) WriteMetrics(w io.Writer) {
	m.metrics.set.WritePrometheus(w)
}
