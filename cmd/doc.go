// Package cmd implements the command-line interface of mmkv.
//
// The package is organized into several subpackages:
//
//   - kv: Key-value operations (get, set, delete, etc.) on a store that is
//     loaded from and saved to a snapshot file
//   - bench: Load generator measuring throughput and latency tails of the engine
//   - inspect: Index statistics and Graphviz rendering of the AVL tree
//   - util: Shared utilities for flags, configuration and store setup (internal use)
//
// Every flag can also be set with an environment variable prefixed with
// MMKV_ (e.g. MMKV_BUCKET_KIND=list). Variables from .env and .env.local are
// loaded on start.
//
// See mmkv -help for a list of all commands.
package cmd
