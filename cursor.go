// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chainmap

// Cursor is a forward cursor over a Map, positioned at a (bucket, offset)
// pair. It does not own any table storage; it only identifies a position
// within the map it was created from. Cursors over the same map compare
// with ==: two cursors are equal iff they address the same position.
//
// The traversal order is ascending bucket index, and insertion order
// within a bucket. The position one past the last bucket, with offset 0,
// is the end of the sequence; it is returned by Map.End and reached by
// advancing past the last entry.
//
// Any structural change to the map (Insert, Delete, Clear, CopyFrom, or a
// resize triggered by one of those) invalidates every outstanding Cursor.
// Using an invalidated cursor has no defined behavior.
type Cursor[K comparable, V any] struct {
	m      *Map[K, V]
	bucket int
	offset int
}

// Begin returns a cursor at the first entry in the map: offset 0 of the
// first non-empty bucket. For an empty map Begin returns End.
func (m *Map[K, V]) Begin() Cursor[K, V] {
	return Cursor[K, V]{m: m, bucket: m.nextOccupied(0)}
}

// End returns the past-the-end cursor, positioned one past the last
// bucket.
func (m *Map[K, V]) End() Cursor[K, V] {
	return Cursor[K, V]{m: m, bucket: len(m.buckets)}
}

// nextOccupied returns the index of the first non-empty bucket at or after
// i, or the capacity when every remaining bucket is empty.
func (m *Map[K, V]) nextOccupied(i int) int {
	for ; i < len(m.buckets); i++ {
		if len(m.buckets[i]) > 0 {
			return i
		}
	}
	return len(m.buckets)
}

// Valid reports whether the cursor addresses an entry, i.e. is not the
// past-the-end position.
func (c Cursor[K, V]) Valid() bool {
	return c.bucket < len(c.m.buckets)
}

// Next returns a cursor advanced by one entry: the next slot of the
// current bucket, or offset 0 of the next non-empty bucket when the
// current bucket is exhausted. Advancing past the last entry yields End.
// The cursor must be valid.
func (c Cursor[K, V]) Next() Cursor[K, V] {
	if c.offset+1 < len(c.m.buckets[c.bucket]) {
		c.offset++
		return c
	}
	c.offset = 0
	c.bucket = c.m.nextOccupied(c.bucket + 1)
	return c
}

// At returns the entry the cursor addresses. The cursor must be valid.
func (c Cursor[K, V]) At() (K, V) {
	s := &c.m.buckets[c.bucket][c.offset]
	return s.key, s.value
}

// Key returns the key the cursor addresses. The cursor must be valid.
func (c Cursor[K, V]) Key() K {
	return c.m.buckets[c.bucket][c.offset].key
}

// Value returns the value the cursor addresses. The cursor must be valid.
func (c Cursor[K, V]) Value() V {
	return c.m.buckets[c.bucket][c.offset].value
}
