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

import (
	"fmt"
	"iter"
)

// Dict is a Map specialized to string keys and string values. It embeds
// the generic table, so all Map operations are available, with two
// divergences: Delete fails with ErrInvalidKey when the key is absent
// rather than returning false, and Set/Update provide upsert semantics
// that Map deliberately lacks.
type Dict struct {
	*Map[string, string]
}

// NewDict constructs an empty Dict.
func NewDict(options ...option[string, string]) *Dict {
	return &Dict{Map: New[string, string](0, options...)}
}

// DictFromSlices constructs a Dict from parallel key and value slices. It
// returns ErrLengthMismatch when the slices differ in length. Unlike
// FromSlices, each pair is applied with upsert semantics, so for duplicate
// keys the last occurrence wins.
func DictFromSlices(keys, values []string, options ...option[string, string]) (*Dict, error) {
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys, %d values", ErrLengthMismatch, len(keys), len(values))
	}
	d := NewDict(options...)
	for i := range keys {
		d.Set(keys[i], values[i])
	}
	return d, nil
}

// Delete removes the entry for the specified key. It shares Map.Delete's
// scan-and-remove and shrink behavior, but when the key is absent it
// returns an error wrapping ErrInvalidKey instead of reporting false.
func (d *Dict) Delete(key string) error {
	if !d.Map.Delete(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Set upserts a single pair: when the key exists its value is updated in
// place (a no-op if the stored value is already equal), otherwise the pair
// is inserted.
func (d *Dict) Set(key, value string) {
	b, i := d.Map.find(key)
	if i >= 0 {
		if d.Map.buckets[b][i].value != value {
			d.Map.buckets[b][i].value = value
		}
		return
	}
	d.Map.Insert(key, value)
}

// Update applies every pair of the sequence with Set, in sequence order.
// Keys already in the dict are updated in place; new keys are inserted,
// with the usual growth rules. For a key occurring more than once in the
// sequence, the last value wins.
func (d *Dict) Update(pairs iter.Seq2[string, string]) {
	for k, v := range pairs {
		d.Set(k, v)
	}
}

// Clone returns an independent copy of the dict.
func (d *Dict) Clone() *Dict {
	return &Dict{Map: d.Map.Clone()}
}
