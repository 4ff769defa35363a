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

import "errors"

// Sentinel errors returned by table operations. Callers match them with
// errors.Is; the returned errors wrap these with the offending key or the
// slice lengths.
var (
	// ErrKeyNotFound is returned by At, BucketSize, and BucketIndex when
	// the requested key is absent.
	ErrKeyNotFound = errors.New("chainmap: key not found")

	// ErrLengthMismatch is returned by FromSlices and DictFromSlices when
	// the key and value slices differ in length. No table is constructed.
	ErrLengthMismatch = errors.New("chainmap: keys and values differ in length")

	// ErrInvalidKey is returned by Dict.Delete when the key is absent.
	// Map.Delete reports the same condition with a false return instead.
	ErrInvalidKey = errors.New("chainmap: invalid key")
)
