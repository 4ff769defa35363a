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

// Package chainmap implements a hash table that maps keys to values using
// separate chaining to handle collisions. If you're not familiar with
// chaining see https://en.wikipedia.org/wiki/Hash_table#Separate_chaining.
//
// # Layout
//
// A chainmap.Map owns a contiguous array of N buckets where N is a power of
// 2. Each bucket is a slice of key/value slots kept in insertion order. The
// bucket for a key is computed as hash(key)&(N-1); the power-of-2 capacity
// lets the modulo reduce to a single mask operation.
//
// The table keeps its load factor (size divided by capacity) between 1/4
// and 3/4. After an insertion the bucket array is repeatedly doubled while
// the load factor exceeds 3/4, and after a deletion it is repeatedly halved
// while the load factor is below 1/4, never shrinking below a single
// bucket. Each capacity change allocates a fresh bucket array and
// redistributes every slot under the new capacity. Relative order of slots
// is preserved only within what lands in the same new bucket; there is no
// global order guarantee across a resize.
//
// Unlike Go's builtin map, insertion never overwrites: Insert reports false
// and leaves the table unchanged when the key is already present. Upsert
// semantics exist only on the string-specialized Dict.
//
// # Iteration
//
// Iteration visits buckets in ascending index order and slots within a
// bucket in insertion order, either through Map.All (usable with
// range-over-func) or through the explicit Cursor returned by Map.Begin.
// Any structural change to the table (Insert, Delete, Clear, CopyFrom, or a
// resize triggered by one of those) invalidates outstanding cursors and
// value pointers; using them afterwards has no defined behavior.
package chainmap

import (
	"fmt"
	"hash/maphash"
	"math/bits"
	"strings"
)

const (
	defaultCapacity = 16
	minCapacity     = 1

	maxLoadFactor = 0.75
	minLoadFactor = 0.25
)

// slot holds a key and value.
type slot[K comparable, V any] struct {
	key   K
	value V
}

// hashFn computes the hash of a key under a seed. The default uses
// hash/maphash, which for comparable types hashes with the same routine as
// Go's builtin map; tests substitute degenerate functions through WithHash.
type hashFn[K comparable] func(key *K, seed maphash.Seed) uint64

func defaultHash[K comparable](key *K, seed maphash.Seed) uint64 {
	return maphash.Comparable(seed, *key)
}

// Map is a hash table from keys to values with chained collision
// resolution. The zero value is not usable; construct with New or
// FromSlices.
//
// A Map is NOT goroutine-safe.
type Map[K comparable, V any] struct {
	hash hashFn[K]
	seed maphash.Seed
	// buckets is the owned bucket array. len(buckets) is the table's
	// capacity, always a power of two and at least minCapacity. Slots
	// within a bucket are in insertion order.
	buckets [][]slot[K, V]
	// size is the number of slots across all buckets.
	size int
}

// New constructs an empty Map. An initialCapacity <= 0 selects the default
// of 16 buckets; other values are rounded up to the next power of two.
func New[K comparable, V any](initialCapacity int, options ...option[K, V]) *Map[K, V] {
	if initialCapacity <= 0 {
		initialCapacity = defaultCapacity
	}
	m := &Map[K, V]{
		hash:    defaultHash[K],
		seed:    maphash.MakeSeed(),
		buckets: make([][]slot[K, V], normalizeCapacity(initialCapacity)),
	}
	for _, op := range options {
		op.apply(m)
	}
	m.checkInvariants()
	return m
}

// FromSlices constructs a Map from parallel key and value slices: keys[i]
// maps to values[i]. It returns ErrLengthMismatch when the slices differ in
// length. Duplicate keys keep the first occurrence; later values for the
// same key are dropped, mirroring Insert's no-overwrite contract.
func FromSlices[K comparable, V any](keys []K, values []V, options ...option[K, V]) (*Map[K, V], error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys, %d values", ErrLengthMismatch, len(keys), len(values))
	}
	m := New[K, V](0, options...)
	for i := range keys {
		m.Insert(keys[i], values[i])
	}
	return m, nil
}

// normalizeCapacity rounds n up to a power of two, minimum minCapacity.
func normalizeCapacity(n int) int {
	if n <= minCapacity {
		return minCapacity
	}
	return 1 << bits.Len(uint(n-1))
}

// bucketIndex returns the bucket for a key under the current capacity.
func (m *Map[K, V]) bucketIndex(key *K) int {
	return int(m.hash(key, m.seed) & uint64(len(m.buckets)-1))
}

// find locates key, returning its bucket and the slot offset within the
// bucket, or offset -1 when the key is absent.
func (m *Map[K, V]) find(key K) (bucket, offset int) {
	bucket = m.bucketIndex(&key)
	for i := range m.buckets[bucket] {
		if m.buckets[bucket][i].key == key {
			return bucket, i
		}
	}
	return bucket, -1
}

// Insert adds an entry to the map. If the key is already present the map is
// unchanged and Insert returns false; the existing value is never
// overwritten.
func (m *Map[K, V]) Insert(key K, value V) bool {
	b, i := m.find(key)
	if i >= 0 {
		return false
	}
	m.buckets[b] = append(m.buckets[b], slot[K, V]{key: key, value: value})
	m.size++
	m.grow()
	m.checkInvariants()
	return true
}

// Get retrieves the value for the specified key, returning ok=false if the
// key is not present.
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if b, i := m.find(key); i >= 0 {
		return m.buckets[b][i].value, true
	}
	return value, false
}

// Contains reports whether the key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, i := m.find(key)
	return i >= 0
}

// At returns the value for the specified key, or an error wrapping
// ErrKeyNotFound when the key is absent.
func (m *Map[K, V]) At(key K) (V, error) {
	if b, i := m.find(key); i >= 0 {
		return m.buckets[b][i].value, nil
	}
	var zero V
	return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
}

// Ref returns a pointer to the value for the specified key, inserting the
// zero value first when the key is absent. The pointer stays valid only
// until the next structural change to the map.
func (m *Map[K, V]) Ref(key K) *V {
	b, i := m.find(key)
	if i < 0 {
		var zero V
		m.Insert(key, zero)
		// The insert may have grown the table, relocating the slot.
		b, i = m.find(key)
	}
	return &m.buckets[b][i].value
}

// Delete removes the entry for the specified key, reporting whether an
// entry was removed. The insertion order of the remaining slots in the
// key's bucket is preserved.
func (m *Map[K, V]) Delete(key K) bool {
	b, i := m.find(key)
	if i < 0 {
		return false
	}
	m.buckets[b] = append(m.buckets[b][:i], m.buckets[b][i+1:]...)
	m.size--
	m.shrink()
	m.checkInvariants()
	return true
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return m.size
}

// Cap returns the number of buckets.
func (m *Map[K, V]) Cap() int {
	return len(m.buckets)
}

// Empty reports whether the map contains no entries.
func (m *Map[K, V]) Empty() bool {
	return m.size == 0
}

// LoadFactor returns size divided by capacity. It is recomputed on every
// call, never cached.
func (m *Map[K, V]) LoadFactor() float64 {
	return float64(m.size) / float64(len(m.buckets))
}

// BucketSize returns the number of entries in the bucket holding the
// specified key. The key must be present; otherwise an error wrapping
// ErrKeyNotFound is returned.
func (m *Map[K, V]) BucketSize(key K) (int, error) {
	b, i := m.find(key)
	if i < 0 {
		return 0, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return len(m.buckets[b]), nil
}

// BucketIndex returns the index of the bucket holding the specified key.
// The key must be present; otherwise an error wrapping ErrKeyNotFound is
// returned.
func (m *Map[K, V]) BucketIndex(key K) (int, error) {
	b, i := m.find(key)
	if i < 0 {
		return 0, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return b, nil
}

// Clear removes all entries from the map, keeping the current capacity.
func (m *Map[K, V]) Clear() {
	m.buckets = make([][]slot[K, V], len(m.buckets))
	m.size = 0
	m.checkInvariants()
}

// CopyFrom replaces the receiver's contents with an independent copy of
// src's entries. The receiver's bucket array is pre-sized to src's
// capacity and the entries reinserted one by one under the receiver's own
// hash function and seed, so the two maps share no storage. Since src's
// load factor is already within bounds, the copy ends with the same
// capacity as src. CopyFrom on the map itself is a no-op.
func (m *Map[K, V]) CopyFrom(src *Map[K, V]) {
	if m == src {
		return
	}
	m.buckets = make([][]slot[K, V], len(src.buckets))
	m.size = 0
	src.All(func(k K, v V) bool {
		i := m.bucketIndex(&k)
		m.buckets[i] = append(m.buckets[i], slot[K, V]{key: k, value: v})
		m.size++
		return true
	})
	m.checkInvariants()
}

// Clone returns an independent copy of the map with the same capacity,
// hash function, and seed.
func (m *Map[K, V]) Clone() *Map[K, V] {
	c := &Map[K, V]{hash: m.hash, seed: m.seed}
	c.CopyFrom(m)
	return c
}

// Equal reports whether two maps hold the same set of entries. Capacity is
// not compared. A key of a that is missing from b makes the maps unequal;
// the miss is not reported as an error.
func Equal[K, V comparable](a, b *Map[K, V]) bool {
	return EqualFunc(a, b, func(v1, v2 V) bool { return v1 == v2 })
}

// EqualFunc is like Equal but compares values with eq, allowing maps with
// non-comparable or differing value types to be compared.
func EqualFunc[K comparable, V1, V2 any](a *Map[K, V1], b *Map[K, V2], eq func(V1, V2) bool) bool {
	if a.size != b.size {
		return false
	}
	equal := true
	a.All(func(k K, v V1) bool {
		w, ok := b.Get(k)
		if !ok || !eq(v, w) {
			equal = false
			return false
		}
		return true
	})
	return equal
}

// All calls yield sequentially for each key and value present in the map,
// visiting buckets in ascending index order and slots within a bucket in
// insertion order. If yield returns false, All stops the iteration. All can
// be used with range-over-func:
//
//	for k, v := range m.All {
//	  fmt.Printf("%v: %v\n", k, v)
//	}
//
// The map must not be structurally mutated during iteration.
func (m *Map[K, V]) All(yield func(key K, value V) bool) {
	for i := range m.buckets {
		for j := range m.buckets[i] {
			s := &m.buckets[i][j]
			if !yield(s.key, s.value) {
				return
			}
		}
	}
}

// grow doubles the capacity until the load factor is back within bounds.
// Called after every insertion; growing and shrinking are mutually
// exclusive per mutation.
func (m *Map[K, V]) grow() {
	for m.LoadFactor() > maxLoadFactor {
		m.resize(2 * len(m.buckets))
	}
}

// shrink halves the capacity until the load factor is back within bounds,
// never dropping below minCapacity. Called after every deletion.
func (m *Map[K, V]) shrink() {
	for m.LoadFactor() < minLoadFactor && len(m.buckets) > minCapacity {
		m.resize(len(m.buckets) / 2)
	}
}

// resize replaces the bucket array with one of newCapacity buckets and
// rehashes: every slot is appended to the bucket computed from its key's
// hash under the new capacity, and the old array is discarded.
func (m *Map[K, V]) resize(newCapacity int) {
	old := m.buckets
	m.buckets = make([][]slot[K, V], newCapacity)
	for _, b := range old {
		for _, s := range b {
			i := m.bucketIndex(&s.key)
			m.buckets[i] = append(m.buckets[i], s)
		}
	}
}

// checkInvariants verifies the internal consistency of the map: the
// capacity is a power of two of at least minCapacity, every slot resides
// in the bucket its key hashes to under the current capacity, no key
// occurs twice, and the slot count matches size. If any of these is
// violated, it panics. Enabled by the invariants build tag.
func (m *Map[K, V]) checkInvariants() {
	if !invariants {
		return
	}

	if c := len(m.buckets); c < minCapacity || c&(c-1) != 0 {
		panic(fmt.Sprintf("invariant failed: capacity %d is not a power of two\n%s",
			c, m.debugString()))
	}

	var size int
	seen := make(map[K]struct{}, m.size)
	for i := range m.buckets {
		for j := range m.buckets[i] {
			s := &m.buckets[i][j]
			if got := m.bucketIndex(&s.key); got != i {
				panic(fmt.Sprintf("invariant failed: key %v in bucket %d, but hashes to %d\n%s",
					s.key, i, got, m.debugString()))
			}
			if _, ok := seen[s.key]; ok {
				panic(fmt.Sprintf("invariant failed: duplicate key %v\n%s",
					s.key, m.debugString()))
			}
			seen[s.key] = struct{}{}
			size++
		}
	}

	if size != m.size {
		panic(fmt.Sprintf("invariant failed: found %d slots, but size is %d\n%s",
			size, m.size, m.debugString()))
	}
}

func (m *Map[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  size=%d  load-factor=%.2f\n",
		len(m.buckets), m.size, m.LoadFactor())
	for i, b := range m.buckets {
		if len(b) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", i)
		for j := range b {
			fmt.Fprintf(&buf, " %v=%v", b[j].key, b[j].value)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
