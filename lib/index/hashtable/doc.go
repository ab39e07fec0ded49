/*
Package hashtable implements a chained hash index with incremental rehashing.

The index keeps two bucket tables. In the stable state only table1 is live.
Once the number of stored entries reaches the number of buckets, a table2 of
twice the size is allocated and the index starts migrating table1 into it,
one bucket per operation (Insert, Find, Erase, Extract, Push). When the
rehash cursor reaches the end of table1 the tables are swapped and table2 is
released. The cost of growing is therefore spread over many operations
instead of stalling a single one. The index never shrinks.

While rehashing, buckets of table1 below the cursor are empty and table2 only
holds migrated entries. Lookups probe table1 first, skipping it when the key's
bucket has already been migrated, and fall back to table2.

Buckets are pluggable (see lib/index/bucket): TreeIndex uses AVL tree buckets
with O(log n) worst case per bucket, ListIndex uses singly linked buckets with
move-to-front. Set and Map are small facades over a TreeIndex.

Stored values never move in memory once inserted: buckets hold nodes by
pointer, so growth only reallocates the bucket arrays. Pointers returned by
Insert and Find stay valid until the entry is erased.

Thread-safety: none. Even Find mutates the index (rehash step, move-to-front),
so callers must serialize every call.
*/
package hashtable
