package hashtable

import (
	"errors"
	"fmt"
)

// Stats is a snapshot of the index layout.
type Stats struct {
	Len        int
	Table1Size int
	Table1Used int
	Table2Size int
	Table2Used int
	Rehashing  bool
	// Cursor is the next table1 bucket to migrate, -1 when stable.
	Cursor int
	// Loads holds the entry count of every live bucket: table1 from the
	// cursor on, then all of table2.
	Loads        []int
	EmptyBuckets int
	MaxLoad      int
}

// LoadFactor returns entries per live bucket.
func (s Stats) LoadFactor() float64 {
	if len(s.Loads) == 0 {
		return 0
	}
	return float64(s.Len) / float64(len(s.Loads))
}

// Stats walks every bucket. O(n + buckets).
func (x *Index[K, T, N, B, PB]) Stats() Stats {
	s := Stats{
		Len:        x.Len(),
		Table1Size: x.t1.size(),
		Table1Used: x.t1.used,
		Table2Size: x.t2.size(),
		Table2Used: x.t2.used,
		Rehashing:  x.cursor != noRehash,
		Cursor:     x.cursor,
	}

	start := 0
	if s.Rehashing {
		start = x.cursor
	}
	s.Loads = make([]int, 0, s.Table1Size-start+s.Table2Size)
	collect := func(b PB) {
		l := b.Count()
		if l == 0 {
			s.EmptyBuckets++
		}
		s.MaxLoad = max(s.MaxLoad, l)
		s.Loads = append(s.Loads, l)
	}
	for i := start; i < s.Table1Size; i++ {
		collect(PB(x.t1.buckets.At(i)))
	}
	for _, b := range x.t2.buckets.All() {
		collect(PB(b))
	}
	return s
}

var (
	ErrMisplaced = errors.New("hashtable: entry in wrong bucket")
	ErrMigrated  = errors.New("hashtable: migrated bucket not empty")
	ErrUsed      = errors.New("hashtable: used counter mismatch")
	ErrState     = errors.New("hashtable: inconsistent rehash state")
)

// Verify checks the table layout, the rehash invariants, the used counters and
// the structure of every bucket. A successful Verify implies that no entry is
// stored in both tables. It is meant for tests and debugging.
func (x *Index[K, T, N, B, PB]) Verify() error {
	size1 := x.t1.size()
	if size1 == 0 || size1&(size1-1) != 0 || x.t1.mask != uint64(size1-1) {
		return fmt.Errorf("%w: table1 has %d buckets, mask %#x", ErrState, size1, x.t1.mask)
	}
	rehashing := x.cursor != noRehash
	if !rehashing && (x.t2.size() != 0 || x.t2.used != 0) {
		return fmt.Errorf("%w: stable index with live table2", ErrState)
	}
	if rehashing {
		if x.cursor < 0 || x.cursor >= size1 {
			return fmt.Errorf("%w: cursor %d outside [0, %d)", ErrState, x.cursor, size1)
		}
		if x.t2.size() != 2*size1 || x.t2.mask != uint64(2*size1-1) {
			return fmt.Errorf("%w: table2 has %d buckets for table1 of %d", ErrState, x.t2.size(), size1)
		}
	}

	var err error
	count := func(t *table[B], i int, b PB) int {
		cnt := 0
		b.Range(func(v *T) bool {
			h := x.hash(x.order.Key(v))
			switch {
			case t.slot(h) != i:
				err = fmt.Errorf("%w: hash slot %d, stored in %d", ErrMisplaced, t.slot(h), i)
			case t == &x.t2 && x.t1.slot(h) >= x.cursor:
				err = fmt.Errorf("%w: table2 holds an entry of unmigrated bucket %d", ErrMisplaced, x.t1.slot(h))
			}
			cnt++
			return err == nil
		})
		if err == nil {
			err = b.Verify(&x.order)
		}
		return cnt
	}

	used1 := 0
	for i, b := range x.t1.buckets.All() {
		if rehashing && i < x.cursor && !PB(b).Empty() {
			return fmt.Errorf("%w: bucket %d below cursor %d", ErrMigrated, i, x.cursor)
		}
		if used1 += count(&x.t1, i, PB(b)); err != nil {
			return err
		}
	}
	used2 := 0
	for i, b := range x.t2.buckets.All() {
		if used2 += count(&x.t2, i, PB(b)); err != nil {
			return err
		}
	}

	if used1 != x.t1.used || used2 != x.t2.used {
		return fmt.Errorf("%w: stored %d/%d, counted %d/%d", ErrUsed, x.t1.used, x.t2.used, used1, used2)
	}
	return nil
}
