package model

import (
	"math/bits"

	"github.com/twmb/murmur3"
)

// NameIndex maps entity names to array indices. It is built once the entity array is
// final and never mutated afterwards, so concurrent lookups are safe.
type NameIndex struct {
	names   []string
	buckets []int32
	next    []int32
	mask    uint32
}

// NewNameIndex builds the index over names. Duplicate names resolve to the first occurrence.
//
// Parameters:
//   - names: the entity names in array order
//
// Returns:
//   - *NameIndex: the hashed index
func NewNameIndex(names []string) *NameIndex {
	size := uint32(1)
	if len(names) > 1 {
		size = 1 << bits.Len32(uint32(len(names)-1))
	}
	idx := &NameIndex{
		names:   names,
		buckets: make([]int32, size),
		next:    make([]int32, len(names)),
		mask:    size - 1,
	}
	for i := range idx.buckets {
		idx.buckets[i] = -1
	}
	// Insert in reverse so every chain lists lower indices first.
	for i := len(names) - 1; i >= 0; i-- {
		b := idx.bucket(names[i])
		idx.next[i] = idx.buckets[b]
		idx.buckets[b] = int32(i)
	}
	return idx
}

func (n *NameIndex) bucket(name string) uint32 {
	return murmur3.StringSum32(name) & n.mask
}

// Len returns the number of indexed names.
func (n *NameIndex) Len() int {
	return len(n.names)
}

// Name returns the name stored at index i.
func (n *NameIndex) Name(i int) string {
	return n.names[i]
}

// Find looks up a name.
//
// Parameters:
//   - name: the entity name
//
// Returns:
//   - int: the array index, or None
//   - bool: whether the name was found
func (n *NameIndex) Find(name string) (int, bool) {
	if n == nil || len(n.names) == 0 {
		return None, false
	}
	for i := n.buckets[n.bucket(name)]; i >= 0; i = n.next[i] {
		if n.names[i] == name {
			return int(i), true
		}
	}
	return None, false
}

// FindInRange looks up a name among the entries whose index lies in [lo, hi]. Chains list
// lower indices first, so the walk stops at the first entry past hi.
//
// Parameters:
//   - name: the entity name
//   - lo, hi: the inclusive index range
//
// Returns:
//   - int: the lowest matching index in range, or None
//   - bool: whether the name was found in range
func (n *NameIndex) FindInRange(name string, lo, hi int) (int, bool) {
	if n == nil || len(n.names) == 0 {
		return None, false
	}
	for i := n.buckets[n.bucket(name)]; i >= 0 && int(i) <= hi; i = n.next[i] {
		if int(i) >= lo && n.names[i] == name {
			return int(i), true
		}
	}
	return None, false
}

// Cursor speeds up lookups that walk an index in array order by trying the entry after
// the previous match before hashing. A Cursor holds mutable state and belongs to a
// single goroutine.
type Cursor struct {
	index *NameIndex
	last  int
}

// NewCursor creates a cursor over the index.
func (n *NameIndex) NewCursor() *Cursor {
	return &Cursor{index: n, last: -1}
}

// Find looks up a name, preferring the entry that follows the previous match.
func (c *Cursor) Find(name string) (int, bool) {
	if next := c.last + 1; next < c.index.Len() && c.index.names[next] == name {
		c.last = next
		return next, true
	}
	i, ok := c.index.Find(name)
	if ok {
		c.last = i
	}
	return i, ok
}

// FindInRange is NameIndex.FindInRange with the same next-entry fast path as Find.
func (c *Cursor) FindInRange(name string, lo, hi int) (int, bool) {
	if next := c.last + 1; next >= lo && next <= hi && next < c.index.Len() && c.index.names[next] == name {
		c.last = next
		return next, true
	}
	i, ok := c.index.FindInRange(name, lo, hi)
	if ok {
		c.last = i
	}
	return i, ok
}
