// Package avl implements the balanced tree engine of the index: a height
// balanced (AVL) binary search tree with parent links.
//
// The package offers two layers:
//
//   - Core: a headless engine that only holds the root pointer. Every operation
//     takes the Ordering explicitly, which keeps the per-instance footprint at
//     a single pointer. The tree bucket of the hash index embeds a Core per slot.
//
//   - Tree: a standalone ordered container (Core + Ordering + element count),
//     used for sorted sets and the expiration queues of the database engine.
//
// Nodes are owned by exactly one tree at a time. Extract detaches a node
// without touching its payload so that it can be handed to another container
// with Push (no reallocation). Iteration walks parent links, there is no
// sentinel node: the logical end of the sequence is the absent parent of the root.
//
// Keys must be totally ordered by the supplied Compare function. An
// inconsistent comparator is a caller bug, it is not detected.
//
// Nothing in this package is thread-safe.
package avl
