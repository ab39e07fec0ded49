package db

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMMKV Implementation = "mmkv"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet            Feature = 1 << iota // Support for Set operations
	FeatureSetE                               // Support for SetE operations
	FeatureSetEIfUnset                        // Support for SetEIfUnset operations
	FeatureGet                                // Support for Get operations
	FeatureExpire                             // Support for Expire operations
	FeatureDelete                             // Support for Delete operations
	FeatureHas                                // Support for Has operations
	FeatureSave                               // Support for Save operations
	FeatureLoad                               // Support for Load operations
	FeatureGarbageCollect                     // Support for GarbageCollect operations
	FeatureMetrics                            // Support for WriteMetrics (see MetricsWriter)
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureSetE:
		return "SetE"
	case FeatureSetEIfUnset:
		return "SetEIfUnset"
	case FeatureGet:
		return "Get"
	case FeatureExpire:
		return "Expire"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	case FeatureMetrics:
		return "Metrics"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for key-value database implementations.
// It provides methods for basic operations like Set, Get, Delete, and various utility functions.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry with the given key, value, and writeIndex.
	// If the key already exists, the old value is overwritten.
	// The writeIndex parameter is used as a logical timestamp for the entry.
	Set(key string, value []byte, writeIndex uint64)

	// SetEIfUnset inserts an entry only if the key does not exist (or is logically deleted).
	// It reports whether the entry was stored; an existing entry is never modified.
	// expireIn and deleteIn behave as for SetE.
	SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) (stored bool)

	// SetE inserts or updates an entry with a ttl (time to live), relative to writeIndex.
	// After expireIn the value is gone but the key is still findable with Has().
	// After deleteIn the entry is gone entirely.
	// Note: expireIn=0 and deleteIn=0 means no expiration or deletion. Setting expireIn=0 and deleteIn=N is equivalent to expireIn=N and deleteIn=N.
	SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64)

	// Expire marks the entry with the specified key as expired.
	// The key stays findable with the Has() method.
	Expire(key string, writeIndex uint64)

	// Delete removes an entry with the specified key and reports whether a
	// (not logically deleted) entry existed.
	Delete(key string, writeIndex uint64) (deleted bool)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves a copy of the value for an exact key.
	// The boolean return value indicates whether a live value was found.
	Get(key string) (value []byte, loaded bool)

	// Has checks whether a key exists in the database.
	// This method returns true even if the value for the key is expired.
	Has(key string) (loaded bool)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the database to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load replaces the database state with the data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database.
	WriteIdx() (index uint64)

	// Close stops background work and releases the database.
	Close() (err error)
}

// MetricsWriter is implemented by databases that export metrics
// (FeatureMetrics) in the Prometheus text format.
type MetricsWriter interface {
	WriteMetrics(w io.Writer)
}
