package mmkv

import (
	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv/internal"
	"github.com/ValentinKolb/mmkv/lib/db/util"
	"github.com/ValentinKolb/mmkv/lib/index/hashtable"
)

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

const (
	samplesPerShard = 100
	entryOverhead   = 40 // expireAt, deleteAt, index and the key header
)

var supportedFeatures = []db.Feature{
	db.FeatureSet, db.FeatureSetE, db.FeatureSetEIfUnset,
	db.FeatureGet, db.FeatureExpire, db.FeatureDelete, db.FeatureHas,
	db.FeatureSave, db.FeatureLoad,
	db.FeatureGarbageCollect, db.FeatureMetrics,
}

// ShardInfo describes the hash index of one shard.
type ShardInfo struct {
	Entries    int     `json:"entries"`
	Buckets    int     `json:"buckets"`
	Rehashing  bool    `json:"rehashing"`
	Cursor     int     `json:"cursor"`
	LoadFactor float64 `json:"load_factor"`
	MaxLoad    int     `json:"max_load"`
	Empty      int     `json:"empty_buckets"`
}

// Info is the implementation specific metadata of GetInfo.
type Info struct {
	CurrentWriteIndex  uint64                 `json:"current_write_index"`
	ShardCount         int                    `json:"shard_count"`
	BucketKind         BucketKind             `json:"bucket_kind"`
	Entries            int                    `json:"entries"`
	ShardDistribution  util.DistributionStats `json:"shard_distribution"`
	BucketDistribution util.DistributionStats `json:"bucket_distribution"`
	RehashingShards    int                    `json:"rehashing_shards"`
	Shards             []ShardInfo            `json:"shards"`
	ValueSizes         string                 `json:"value_sizes"`
	ExpiredBacklog     float64                `json:"expired_backlog"`
	DeletedBacklog     float64                `json:"deleted_backlog"`
	Info               string                 `json:"info"`
}

// GetInfo returns statistics about the database. Index layouts are exact,
// value sizes and GC backlogs are sampled.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *mmkvImpl) GetInfo() db.DatabaseInfo {

	// get current index only once
	currentWriteIndex := m.currIndex.Load()

	histogram := util.NewSizeHistogram()
	info := &Info{
		CurrentWriteIndex: currentWriteIndex,
		ShardCount:        len(m.shards),
		BucketKind:        m.opts.BucketKind,
		Shards:            make([]ShardInfo, len(m.shards)),
		Info:              "SizeBytes, value sizes and backlogs are estimates based on sampling.",
	}

	var (
		shardSizes  = make([]float64, len(m.shards))
		loads       []int
		samples     int
		expiredSeen int
		deletedSeen int
	)

	m.eachShard(func(i int, s *internal.Shard) {
		st := s.Data.Stats()
		info.Shards[i] = shardInfo(st)
		info.Entries += st.Len
		if st.Rehashing {
			info.RehashingShards++
		}
		shardSizes[i] = float64(st.Len)
		loads = append(loads, st.Loads...)

		count := 0
		s.Data.Range(func(e *internal.Entry) bool {
			histogram.AddSample(len(e.Key) + len(e.Value))

			// expired or deleted but not yet processed by the gc
			isExpired, isDeleted := e.TTLInfo(currentWriteIndex)
			if isExpired && e.Value != nil {
				expiredSeen++
			}
			if isDeleted {
				deletedSeen++
			}

			count++
			return count < samplesPerShard
		})
		samples += count
	})

	info.ShardDistribution = util.NewDistributionStats(shardSizes)
	info.BucketDistribution = util.NewLoadStats(loads)
	info.ValueSizes = histogram.String()
	if samples > 0 {
		info.ExpiredBacklog = float64(expiredSeen) / float64(samples)
		info.DeletedBacklog = float64(deletedSeen) / float64(samples)
	}

	// weighted per entry estimate (60% median, 40% average)
	perEntry := (histogram.MedianEstimate()*60+histogram.AverageSize()*40)/100 + entryOverhead

	return db.DatabaseInfo{
		SizeBytes:         perEntry * info.Entries,
		DbType:            db.ImplMMKV,
		SupportedFeatures: supportedFeatures,
		Metadata:          info,
	}
}

func shardInfo(st hashtable.Stats) ShardInfo {
	return ShardInfo{
		Entries:    st.Len,
		Buckets:    st.Table1Size + st.Table2Size,
		Rehashing:  st.Rehashing,
		Cursor:     st.Cursor,
		LoadFactor: st.LoadFactor(),
		MaxLoad:    st.MaxLoad,
		Empty:      st.EmptyBuckets,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (m *mmkvImpl) SupportsFeature(feature db.Feature) bool {
	var all db.Feature
	for _, f := range supportedFeatures {
		all |= f
	}
	return all&feature == feature
}
