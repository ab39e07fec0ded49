package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
)

// --------------------------------------------------------------------------
// Engine configuration struct
// --------------------------------------------------------------------------

// EngineConfig holds the configuration of an mmkv engine as read from flags
// and the environment.
type EngineConfig struct {
	Shards      int
	BucketKind  string
	InitialSize int
	GCInterval  time.Duration
	RehashSteps int

	// Snapshot file used by the kv commands
	DataFile string

	// Logging configuration
	LogLevel string
}

// ToDBOptions validates the configuration and converts it to engine options
func (c *EngineConfig) ToDBOptions() (*mmkv.DBOptions, error) {
	kind, err := mmkv.ParseBucketKind(c.BucketKind)
	if err != nil {
		return nil, err
	}
	if c.Shards < 0 {
		return nil, fmt.Errorf("invalid shard count %d", c.Shards)
	}
	if c.InitialSize < 0 {
		return nil, fmt.Errorf("invalid initial size %d", c.InitialSize)
	}

	return &mmkv.DBOptions{
		NumShards:   c.Shards,
		GCInterval:  c.GCInterval,
		BucketKind:  kind,
		InitialSize: c.InitialSize,
		RehashSteps: c.RehashSteps,
	}, nil
}

// String returns a formatted string representation of the configuration
func (c *EngineConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	shards := "auto"
	if c.Shards > 0 {
		shards = strconv.Itoa(c.Shards)
	}

	addSection("Engine")
	addField("Shards", shards)
	addField("Bucket Kind", c.BucketKind)
	addField("Initial Buckets", humanize.Comma(int64(c.InitialSize)))
	addField("GC Interval", c.GCInterval.String())
	addField("Rehash Steps per GC", strconv.Itoa(c.RehashSteps))

	if c.DataFile != "" {
		addSection("Storage")
		addField("Data File", c.DataFile)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
