/*
Package bucket provides the two interchangeable bucket kinds used by the hash
index in lib/index/hashtable.

A bucket holds every entry that hashes to one slot of one table. Both kinds
share a node based method set so the index can move nodes between buckets
without reallocating them:

  - List: a singly linked chain. Insertion is O(1) at the head, lookups scan
    linearly and move a hit to the head (move-to-front).
  - Tree: a thin adapter over avl.Core. All operations are O(log n) in the
    worst case, even under adversarial hash collisions.

Buckets do not count their entries; the owning table keeps the totals. Count
walks the bucket and is meant for statistics only.

The zero value of either kind is an empty bucket. Buckets are not safe for
concurrent use.
*/
package bucket
